package services

import (
	"context"
	"sort"
	"sync"

	"github.com/artisanhub/backend/internal/models"
	"github.com/artisanhub/backend/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) OrderExists(ctx context.Context, orderID string) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, id string) (*models.Transaction, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// memStore is an in-memory TransactionStore with the same compare-and-swap
// behaviour as the Postgres store
type memStore struct {
	mu           sync.Mutex
	rows         map[string]models.Transaction
	inserts      int
	updates      int
	insertErr    error
	updateErr    error
	beforeUpdate func(s *memStore, tx *models.Transaction)
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]models.Transaction{}}
}

func (s *memStore) Insert(ctx context.Context, tx *models.Transaction) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	s.rows[tx.ID] = *tx
	return nil
}

func (s *memStore) Update(ctx context.Context, tx *models.Transaction, expectedVersion int) (bool, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate(s, tx)
	}
	if s.updateErr != nil {
		return false, s.updateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++

	row, ok := s.rows[tx.ID]
	if !ok || row.Version != expectedVersion {
		return false, nil
	}

	tx.Version = expectedVersion + 1
	s.rows[tx.ID] = *tx
	return true, nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNoRows
	}
	return &row, nil
}

func (s *memStore) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Transaction{}
	for _, row := range s.rows {
		if row.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.Type != "" && row.Type != filter.Type {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return []models.Transaction{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// mutate changes a stored row as a concurrent writer would
func (s *memStore) mutate(id string, fn func(tx *models.Transaction)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[id]
	fn(&row)
	row.Version++
	s.rows[id] = row
}

func (s *memStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}
