package services

import "github.com/artisanhub/backend/internal/models"

var allowedTransitions = map[models.TransactionStatus][]models.TransactionStatus{
	models.StatusPending:   {models.StatusCompleted, models.StatusFailed, models.StatusCancelled},
	models.StatusFailed:    {models.StatusPending},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
}

// TransitionPolicy decides whether a ledger entry may move between statuses.
// Unless strict, every move is allowed so that operators can correct records.
type TransitionPolicy struct {
	Strict bool
}

func (p TransitionPolicy) Check(from, to models.TransactionStatus) error {
	if !p.Strict || from == to {
		return nil
	}

	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}
