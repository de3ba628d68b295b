package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/artisanhub/backend/internal/clock"
	"github.com/artisanhub/backend/internal/metrics"
	"github.com/artisanhub/backend/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestLedger(opts ...LedgerOption) (*LedgerService, *memStore, *clock.Manual) {
	store := newMemStore()
	clk := clock.NewManual(t0)
	seq := 0
	base := []LedgerOption{
		WithClock(clk),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("tx_%03d", seq)
		}),
	}
	return NewLedgerService(store, append(base, opts...)...), store, clk
}

func toStatus(s models.TransactionStatus) models.StatusUpdate {
	return models.StatusUpdate{Status: s}
}

func TestLedgerService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("new entry is pending with matching timestamps", func(t *testing.T) {
		svc, store, _ := newTestLedger()

		tx, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)

		assert.Equal(t, "tx_001", tx.ID)
		assert.Equal(t, models.StatusPending, tx.Status)
		assert.Nil(t, tx.CompletedAt)
		assert.Equal(t, t0, tx.CreatedAt)
		assert.Equal(t, tx.CreatedAt, tx.UpdatedAt)
		assert.Equal(t, 1, tx.Version)
		assert.Equal(t, 1, store.inserts)

		stored, err := store.GetByID(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, *tx, *stored)
	})

	t.Run("caller cannot forge status or history", func(t *testing.T) {
		svc, _, _ := newTestLedger()

		forged := t0.Add(-72 * time.Hour)
		req := validDepositRequest()
		req.Status = models.StatusCompleted
		req.CreatedAt = &forged
		req.UpdatedAt = &forged
		req.CompletedAt = &forged

		tx, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, tx.Status)
		assert.Equal(t, t0, tx.CreatedAt)
		assert.Equal(t, t0, tx.UpdatedAt)
		assert.Nil(t, tx.CompletedAt)
	})

	t.Run("order linked types fail without order", func(t *testing.T) {
		for _, txType := range []models.TransactionType{
			models.TypeEscrowHold, models.TypeEscrowRelease, models.TypeEscrowRefund, models.TypePlatformFee,
		} {
			t.Run(string(txType), func(t *testing.T) {
				svc, store, _ := newTestLedger()
				req := validDepositRequest()
				req.Type = txType

				_, err := svc.Create(ctx, req)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, 0, store.inserts)
			})
		}
	})

	t.Run("deposit and withdrawal need no order", func(t *testing.T) {
		for _, txType := range []models.TransactionType{models.TypeDeposit, models.TypeWithdrawal} {
			svc, _, _ := newTestLedger()
			req := validDepositRequest()
			req.Type = txType

			tx, err := svc.Create(ctx, req)
			require.NoError(t, err)
			assert.Nil(t, tx.OrderID)
		}
	})

	t.Run("escrow hold keeps its order and fee", func(t *testing.T) {
		svc, _, _ := newTestLedger()
		req := validDepositRequest()
		req.Type = models.TypeEscrowHold
		req.OrderID = strPtr("order_9")
		req.Amount = decimalPtr("-2.0")
		req.BalanceAfter = decimalPtr("3.0")
		req.PlatformFee = &models.PlatformFee{Amount: *decimalPtr("0.02"), Currency: models.CurrencySOL}
		req.Metadata.AdditionalData = models.Metadata{"jobId": "job_1"}

		tx, err := svc.Create(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, tx.OrderID)
		assert.Equal(t, "order_9", *tx.OrderID)

		*req.OrderID = "tampered"
		assert.Equal(t, "order_9", *tx.OrderID)
		assert.Equal(t, "0.02", tx.PlatformFee.Amount.String())
		assert.Equal(t, "job_1", tx.Metadata.AdditionalData["jobId"])
	})

	t.Run("unsupported currency", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		req := validDepositRequest()
		req.Currency = "EUR"

		_, err := svc.Create(ctx, req)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Fields, "currency")
		assert.Equal(t, 0, store.inserts)
	})

	t.Run("store failure surfaces as persistence error", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		cause := errors.New("connection refused")
		store.insertErr = cause

		_, err := svc.Create(ctx, validDepositRequest())
		var pe *PersistenceError
		require.True(t, errors.As(err, &pe))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("created event is published", func(t *testing.T) {
		pub := &MockEventPublisher{}
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e LedgerEvent) bool {
			return e.Event == EventTransactionCreated && e.Status == models.StatusPending && e.Amount == "5"
		})).Return(nil).Once()

		svc, _, _ := newTestLedger(WithEventPublisher(pub))
		_, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		pub := &MockEventPublisher{}
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

		svc, store, _ := newTestLedger(WithEventPublisher(pub))
		_, err := svc.Create(ctx, validDepositRequest())
		assert.NoError(t, err)
		assert.Equal(t, 1, store.inserts)
	})
}

func TestLedgerService_Create_References(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		dir := &MockDirectory{}
		dir.On("UserExists", mock.Anything, "u1").Return(false, nil)

		svc, store, _ := newTestLedger(WithDirectory(dir))
		_, err := svc.Create(ctx, validDepositRequest())

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "does not exist", ve.Fields["user"])
		assert.Equal(t, 0, store.inserts)
	})

	t.Run("unknown order", func(t *testing.T) {
		dir := &MockDirectory{}
		dir.On("UserExists", mock.Anything, "u1").Return(true, nil)
		dir.On("OrderExists", mock.Anything, "order_404").Return(false, nil)

		svc, _, _ := newTestLedger(WithDirectory(dir))
		req := validDepositRequest()
		req.Type = models.TypeEscrowRelease
		req.OrderID = strPtr("order_404")

		_, err := svc.Create(ctx, req)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "does not exist", ve.Fields["order"])
	})

	t.Run("deposit skips order lookup", func(t *testing.T) {
		dir := &MockDirectory{}
		dir.On("UserExists", mock.Anything, "u1").Return(true, nil)

		svc, _, _ := newTestLedger(WithDirectory(dir))
		_, err := svc.Create(ctx, validDepositRequest())
		assert.NoError(t, err)
		dir.AssertNotCalled(t, "OrderExists", mock.Anything, mock.Anything)
	})

	t.Run("directory failure", func(t *testing.T) {
		dir := &MockDirectory{}
		dir.On("UserExists", mock.Anything, "u1").Return(false, errors.New("timeout"))

		svc, _, _ := newTestLedger(WithDirectory(dir))
		_, err := svc.Create(ctx, validDepositRequest())
		var pe *PersistenceError
		assert.True(t, errors.As(err, &pe))
	})
}

func TestLedgerService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("completion with transaction hash", func(t *testing.T) {
		svc, _, clk := newTestLedger()
		tx, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)

		clk.Advance(time.Second)
		updated, err := svc.UpdateStatus(ctx, tx.ID, models.StatusUpdate{
			Status:          models.StatusCompleted,
			TransactionHash: strPtr("abc123"),
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusCompleted, updated.Status)
		assert.Equal(t, "abc123", updated.PaymentDetails.TransactionHash)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, t0.Add(time.Second), *updated.CompletedAt)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("completedAt is stamped once", func(t *testing.T) {
		svc, _, clk := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		clk.Advance(time.Second)
		first, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		require.NoError(t, err)
		stamp := *first.CompletedAt

		clk.Advance(time.Minute)
		second, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		require.NoError(t, err)
		assert.Equal(t, stamp, *second.CompletedAt)

		clk.Advance(time.Minute)
		_, err = svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusPending))
		require.NoError(t, err)
		clk.Advance(time.Minute)
		third, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		require.NoError(t, err)
		assert.Equal(t, stamp, *third.CompletedAt)
	})

	t.Run("updatedAt strictly increases even on a stalled clock", func(t *testing.T) {
		svc, _, clk := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())
		last := tx.UpdatedAt

		for i := 0; i < 3; i++ {
			updated, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusPending))
			require.NoError(t, err)
			assert.True(t, updated.UpdatedAt.After(last))
			assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
			last = updated.UpdatedAt
		}

		clk.Advance(time.Hour)
		updated, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusFailed))
		require.NoError(t, err)
		assert.Equal(t, t0.Add(time.Hour), updated.UpdatedAt)
	})

	t.Run("failure reason applies regardless of status", func(t *testing.T) {
		svc, _, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		updated, err := svc.UpdateStatus(ctx, tx.ID, models.StatusUpdate{
			Status:        models.StatusPending,
			FailureReason: strPtr("wallet signature rejected"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		assert.Equal(t, "wallet signature rejected", updated.PaymentDetails.FailureReason)
	})

	t.Run("regression is allowed by default", func(t *testing.T) {
		svc, _, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		require.NoError(t, err)
		updated, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusPending))
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("strict policy rejects regression", func(t *testing.T) {
		svc, store, _ := newTestLedger(WithTransitionPolicy(TransitionPolicy{Strict: true}))
		tx, _ := svc.Create(ctx, validDepositRequest())

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		require.NoError(t, err)

		_, err = svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusPending))
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, 1, store.updates)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus("settled"))
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Contains(t, ve.Fields, "status")
		assert.Equal(t, 0, store.updates)
	})

	t.Run("missing entry", func(t *testing.T) {
		svc, _, _ := newTestLedger()

		_, err := svc.UpdateStatus(ctx, "nope", toStatus(models.StatusCompleted))
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "nope", nf.ID)
	})

	t.Run("entry removed before write", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())
		store.beforeUpdate = func(s *memStore, _ *models.Transaction) {
			s.remove(tx.ID)
		}

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expected version mismatch", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		conflicts := testutil.ToFloat64(metrics.UpdateConflicts)

		stale := 7
		_, err := svc.UpdateStatus(ctx, tx.ID, models.StatusUpdate{Status: models.StatusCompleted, ExpectedVersion: &stale})
		var ce *ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, 7, ce.Expected)
		assert.Equal(t, 1, ce.Actual)
		assert.Equal(t, 0, store.updates)
		assert.Equal(t, conflicts+1, testutil.ToFloat64(metrics.UpdateConflicts))
	})

	t.Run("expected version lost to concurrent writer", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())
		store.beforeUpdate = func(s *memStore, _ *models.Transaction) {
			s.beforeUpdate = nil
			s.mutate(tx.ID, func(row *models.Transaction) { row.Status = models.StatusCancelled })
		}

		version := 1
		_, err := svc.UpdateStatus(ctx, tx.ID, models.StatusUpdate{Status: models.StatusCompleted, ExpectedVersion: &version})
		var ce *ConflictError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, 2, ce.Actual)
	})

	t.Run("lost race is retried and keeps first completion", func(t *testing.T) {
		svc, store, clk := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())

		winnerStamp := t0.Add(30 * time.Second)
		store.beforeUpdate = func(s *memStore, _ *models.Transaction) {
			s.beforeUpdate = nil
			s.mutate(tx.ID, func(row *models.Transaction) {
				row.Status = models.StatusCompleted
				row.CompletedAt = &winnerStamp
				row.UpdatedAt = winnerStamp
			})
		}

		clk.Advance(time.Minute)
		updated, err := svc.UpdateStatus(ctx, tx.ID, models.StatusUpdate{
			Status:          models.StatusCompleted,
			TransactionHash: strPtr("sig_2"),
		})
		require.NoError(t, err)
		assert.Equal(t, winnerStamp, *updated.CompletedAt)
		assert.Equal(t, "sig_2", updated.PaymentDetails.TransactionHash)
		assert.Equal(t, 3, updated.Version)
		assert.Equal(t, 2, store.updates)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		svc, store, _ := newTestLedger(WithUpdateRetries(2))
		tx, _ := svc.Create(ctx, validDepositRequest())
		store.beforeUpdate = func(s *memStore, _ *models.Transaction) {
			s.mutate(tx.ID, func(row *models.Transaction) {})
		}

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Equal(t, 3, store.updates)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, store, _ := newTestLedger()
		tx, _ := svc.Create(ctx, validDepositRequest())
		store.updateErr = errors.New("deadlock detected")

		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusCompleted))
		var pe *PersistenceError
		assert.True(t, errors.As(err, &pe))
	})

	t.Run("status change event carries previous status", func(t *testing.T) {
		pub := &MockEventPublisher{}
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e LedgerEvent) bool {
			return e.Event == EventTransactionCreated
		})).Return(nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(e LedgerEvent) bool {
			return e.Event == EventStatusChanged && e.PreviousStatus == models.StatusPending && e.Status == models.StatusFailed
		})).Return(nil).Once()

		svc, _, _ := newTestLedger(WithEventPublisher(pub))
		tx, _ := svc.Create(ctx, validDepositRequest())
		_, err := svc.UpdateStatus(ctx, tx.ID, toStatus(models.StatusFailed))
		require.NoError(t, err)
		pub.AssertExpectations(t)
	})
}

func TestLedgerService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the store", func(t *testing.T) {
		cached := &models.Transaction{ID: "tx_cached", UserID: "u1", Status: models.StatusCompleted}
		cache := &MockCache{}
		cache.On("Get", mock.Anything, "tx_cached").Return(cached, true, nil)

		svc, _, _ := newTestLedger(WithCache(cache))
		tx, err := svc.Get(ctx, "tx_cached")
		require.NoError(t, err)
		assert.Same(t, cached, tx)
	})

	t.Run("cache miss fills the cache", func(t *testing.T) {
		cache := &MockCache{}
		cache.On("Set", mock.Anything, mock.Anything).Return(nil)
		cache.On("Get", mock.Anything, "tx_001").Return(nil, false, nil)

		svc, _, _ := newTestLedger(WithCache(cache))
		created, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)

		tx, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, tx.ID)
		cache.AssertNumberOfCalls(t, "Set", 2)
	})

	t.Run("cache failure falls back to store", func(t *testing.T) {
		cache := &MockCache{}
		cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("oom"))
		cache.On("Get", mock.Anything, "tx_001").Return(nil, false, errors.New("timeout"))

		svc, _, _ := newTestLedger(WithCache(cache))
		created, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)

		tx, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, tx.ID)
	})

	t.Run("missing", func(t *testing.T) {
		svc, _, _ := newTestLedger()
		_, err := svc.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLedgerService_ListByUser(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestLedger()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, validDepositRequest())
		require.NoError(t, err)
		clk.Advance(time.Second)
	}
	other := validDepositRequest()
	other.UserID = "u2"
	_, err := svc.Create(ctx, other)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, "tx_001", toStatus(models.StatusCompleted))
	require.NoError(t, err)

	t.Run("newest first for the user only", func(t *testing.T) {
		txs, err := svc.ListByUser(ctx, models.TransactionFilter{UserID: "u1"})
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, "tx_003", txs[0].ID)
		assert.Equal(t, "tx_001", txs[2].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		txs, err := svc.ListByUser(ctx, models.TransactionFilter{UserID: "u1", Status: models.StatusCompleted})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "tx_001", txs[0].ID)
	})

	t.Run("limit is capped and offset applied", func(t *testing.T) {
		txs, err := svc.ListByUser(ctx, models.TransactionFilter{UserID: "u1", Limit: 1000, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, txs, 2)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := svc.ListByUser(ctx, models.TransactionFilter{})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.ListByUser(ctx, models.TransactionFilter{UserID: "u1", Status: "settled"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.ListByUser(ctx, models.TransactionFilter{UserID: "u1", Type: "transfer"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestLedgerService_DepositThenEscrowScenario(t *testing.T) {
	ctx := context.Background()
	svc, store, clk := newTestLedger()

	e1, err := svc.Create(ctx, &models.CreateTransactionRequest{
		UserID:         "u1",
		Type:           models.TypeDeposit,
		Amount:         decimalPtr("5.0"),
		Currency:       models.CurrencySOL,
		PaymentDetails: models.PaymentDetails{Provider: models.ProviderSolana},
		BalanceAfter:   decimalPtr("5.0"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, e1.Status)

	clk.Advance(2 * time.Second)
	e1, err = svc.UpdateStatus(ctx, e1.ID, models.StatusUpdate{
		Status:          models.StatusCompleted,
		TransactionHash: strPtr("tx_001"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, e1.Status)
	assert.NotNil(t, e1.CompletedAt)
	assert.Equal(t, "tx_001", e1.PaymentDetails.TransactionHash)

	_, err = svc.Create(ctx, &models.CreateTransactionRequest{
		UserID:         "u1",
		Type:           models.TypeEscrowHold,
		Amount:         decimalPtr("-2.0"),
		Currency:       models.CurrencySOL,
		PaymentDetails: models.PaymentDetails{Provider: models.ProviderSolana},
		BalanceAfter:   decimalPtr("3.0"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, store.inserts)
}
