package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/artisanhub/backend/internal/clock"
	"github.com/artisanhub/backend/internal/metrics"
	"github.com/artisanhub/backend/internal/models"
	"github.com/artisanhub/backend/internal/repository"
	"github.com/google/uuid"
)

// Postgres stores timestamps with microsecond precision
const timestampResolution = time.Microsecond

type TransactionCache interface {
	Get(ctx context.Context, id string) (*models.Transaction, bool, error)
	Set(ctx context.Context, tx *models.Transaction) error
}

// ReferenceDirectory resolves the user and order an entry points at
type ReferenceDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	OrderExists(ctx context.Context, orderID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

type LedgerService struct {
	store      repository.TransactionStore
	cache      TransactionCache
	events     EventPublisher
	directory  ReferenceDirectory
	clock      clock.Clock
	audit      *AuditLogger
	validator  *ValidationHelper
	policy     TransitionPolicy
	maxRetries int
	newID      func() string
}

type LedgerOption func(*LedgerService)

func WithCache(cache TransactionCache) LedgerOption {
	return func(s *LedgerService) { s.cache = cache }
}

func WithEventPublisher(events EventPublisher) LedgerOption {
	return func(s *LedgerService) { s.events = events }
}

// WithDirectory makes Create reject entries whose user or order is unknown
func WithDirectory(directory ReferenceDirectory) LedgerOption {
	return func(s *LedgerService) { s.directory = directory }
}

func WithClock(c clock.Clock) LedgerOption {
	return func(s *LedgerService) { s.clock = c }
}

func WithTransitionPolicy(policy TransitionPolicy) LedgerOption {
	return func(s *LedgerService) { s.policy = policy }
}

// WithUpdateRetries bounds how often UpdateStatus reloads an entry after
// losing a version race
func WithUpdateRetries(n int) LedgerOption {
	return func(s *LedgerService) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithIDGenerator(newID func() string) LedgerOption {
	return func(s *LedgerService) { s.newID = newID }
}

func NewLedgerService(store repository.TransactionStore, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:      store,
		clock:      clock.System(),
		audit:      NewAuditLogger(),
		validator:  NewValidationHelper(),
		maxRetries: 3,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a new pending ledger entry. Status and timestamps supplied
// by the caller are discarded.
func (s *LedgerService) Create(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}

	if err := s.verifyReferences(ctx, req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	tx := &models.Transaction{
		ID:             s.newID(),
		UserID:         req.UserID,
		Type:           req.Type,
		Amount:         *req.Amount,
		Currency:       req.Currency,
		Status:         models.StatusPending,
		PaymentDetails: req.PaymentDetails,
		Metadata:       req.Metadata,
		BalanceAfter:   *req.BalanceAfter,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.OrderID != nil && strings.TrimSpace(*req.OrderID) != "" {
		orderID := *req.OrderID
		tx.OrderID = &orderID
	}
	if req.PlatformFee != nil {
		fee := *req.PlatformFee
		tx.PlatformFee = &fee
	}

	if err := s.store.Insert(ctx, tx); err != nil {
		s.audit.LogError(tx.ID, tx.UserID, err)
		metrics.StoreErrors.WithLabelValues("create").Inc()
		return nil, newPersistenceError("ledger.Create", err)
	}

	metrics.EntriesCreated.WithLabelValues(string(tx.Type), string(tx.Currency)).Inc()

	log.Printf("[LEDGER] Created %s entry %s for user %s: %s %s", tx.Type, tx.ID, tx.UserID, tx.Amount.String(), tx.Currency)
	s.cacheEntry(ctx, tx)
	s.publish(ctx, newLedgerEvent(EventTransactionCreated, tx, ""))
	s.audit.LogCreated(tx)

	return tx, nil
}

func (s *LedgerService) verifyReferences(ctx context.Context, req *models.CreateTransactionRequest) error {
	if s.directory == nil {
		return nil
	}

	ok, err := s.directory.UserExists(ctx, req.UserID)
	if err != nil {
		return newPersistenceError("ledger.verifyUser", err)
	}
	if !ok {
		return newFieldError("user", "does not exist")
	}

	if req.OrderID == nil || strings.TrimSpace(*req.OrderID) == "" {
		return nil
	}

	ok, err = s.directory.OrderExists(ctx, *req.OrderID)
	if err != nil {
		return newPersistenceError("ledger.verifyOrder", err)
	}
	if !ok {
		return newFieldError("order", "does not exist")
	}

	return nil
}

// UpdateStatus moves an entry to a new status and records the optional
// failure reason and transaction hash that come with it. completedAt is
// stamped only the first time the entry completes.
func (s *LedgerService) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Transaction, error) {
	if !update.Status.IsValid() {
		return nil, newFieldError("status", "must be one of: pending, completed, failed, cancelled")
	}

	for attempt := 0; ; attempt++ {
		current, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}

		if update.ExpectedVersion != nil && *update.ExpectedVersion != current.Version {
			metrics.UpdateConflicts.Inc()
			return nil, &ConflictError{ID: id, Expected: *update.ExpectedVersion, Actual: current.Version}
		}

		if err := s.policy.Check(current.Status, update.Status); err != nil {
			return nil, err
		}

		loadedVersion := current.Version
		previous := current.Status
		next := applyStatus(*current, update, s.clock.Now())

		ok, err := s.store.Update(ctx, next, loadedVersion)
		if err != nil {
			s.audit.LogError(id, current.UserID, err)
			metrics.StoreErrors.WithLabelValues("update").Inc()
			return nil, newPersistenceError("ledger.UpdateStatus", err)
		}

		if ok {
			metrics.StatusChanges.WithLabelValues(string(previous), string(next.Status)).Inc()
			log.Printf("[LEDGER] Entry %s status %s -> %s (version %d)", id, previous, next.Status, next.Version)
			s.cacheEntry(ctx, next)
			s.publish(ctx, newLedgerEvent(EventStatusChanged, next, previous))
			s.audit.LogStatusChange(next, previous)
			return next, nil
		}

		if update.ExpectedVersion != nil || attempt >= s.maxRetries {
			return nil, s.lostRace(ctx, id, loadedVersion)
		}

		metrics.UpdateRetries.Inc()
		log.Printf("[LEDGER] Version %d of entry %s is stale, retrying (attempt %d)", loadedVersion, id, attempt+1)
	}
}

func applyStatus(tx models.Transaction, update models.StatusUpdate, now time.Time) *models.Transaction {
	if !now.After(tx.UpdatedAt) {
		now = tx.UpdatedAt.Add(timestampResolution)
	}

	tx.Status = update.Status
	if update.FailureReason != nil && *update.FailureReason != "" {
		tx.PaymentDetails.FailureReason = *update.FailureReason
	}
	if update.TransactionHash != nil && *update.TransactionHash != "" {
		tx.PaymentDetails.TransactionHash = *update.TransactionHash
	}
	if update.Status == models.StatusCompleted && tx.CompletedAt == nil {
		completedAt := now
		tx.CompletedAt = &completedAt
	}
	tx.UpdatedAt = now

	return &tx
}

// lostRace explains why a compare-and-swap matched no row
func (s *LedgerService) lostRace(ctx context.Context, id string, expected int) error {
	latest, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	metrics.UpdateConflicts.Inc()
	return &ConflictError{ID: id, Expected: expected, Actual: latest.Version}
}

// Get returns an entry, preferring the cache
func (s *LedgerService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	if s.cache != nil {
		tx, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Printf("[LEDGER] Cache read failed for %s: %v", id, err)
		} else if ok {
			return tx, nil
		}
	}

	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheEntry(ctx, tx)
	return tx, nil
}

// ListByUser returns a user's entries, newest first
func (s *LedgerService) ListByUser(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	if strings.TrimSpace(filter.UserID) == "" {
		return nil, newFieldError("user", "is required")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, newFieldError("status", "must be one of: pending, completed, failed, cancelled")
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, newFieldError("type", "must be one of: deposit, withdrawal, escrow_hold, escrow_release, escrow_refund, platform_fee")
	}

	if filter.Limit <= 0 {
		filter.Limit = models.DefaultListLimit
	}
	if filter.Limit > models.MaxListLimit {
		filter.Limit = models.MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	txs, err := s.store.List(ctx, filter)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("list").Inc()
		return nil, newPersistenceError("ledger.ListByUser", err)
	}

	return txs, nil
}

// load reads straight from the store so the version is current
func (s *LedgerService) load(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, newPersistenceError("ledger.load", err)
	}
	return tx, nil
}

func (s *LedgerService) cacheEntry(ctx context.Context, tx *models.Transaction) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, tx); err != nil {
		log.Printf("[LEDGER] Failed to cache entry %s: %v", tx.ID, err)
	}
}

func (s *LedgerService) publish(ctx context.Context, event LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("[LEDGER] Failed to publish %s for %s: %v", event.Event, event.TransactionID, err)
	}
}
