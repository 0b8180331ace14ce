package memory

import (
	"context"
	"sync"

	"ktp/internal/applicant/models"
)

// InMemory keeps the persisted snapshot in process. Useful for development
// and tests; nothing survives a restart.
type InMemory struct {
	mu   sync.RWMutex
	rows []models.ApplicantRecord
}

// New returns a store seeded with rows.
func New(rows ...models.ApplicantRecord) *InMemory {
	return &InMemory{rows: append([]models.ApplicantRecord(nil), rows...)}
}

func (s *InMemory) LoadAll(ctx context.Context) ([]models.ApplicantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ApplicantRecord{}, s.rows...), nil
}

// ReplaceAll swaps the stored snapshot in one step.
func (s *InMemory) ReplaceAll(ctx context.Context, applicants []models.ApplicantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := append([]models.ApplicantRecord{}, applicants...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	return nil
}
