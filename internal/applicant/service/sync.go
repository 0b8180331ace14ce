package service

import (
	"context"
	"time"

	dErrors "ktp/pkg/domain-errors"
	"ktp/pkg/requestcontext"
)

// sync writes the whole record list through the gateway. Callers hold s.mu.
//
// A failed sync leaves memory as it is: the mutation that triggered it stays
// applied and is written by the next successful sync. The gateway rolls its
// own transaction back, so durable state keeps the previous snapshot.
func (s *Service) sync(ctx context.Context) error {
	s.metrics.SetSizes(s.records.Len(), s.queue.Len())
	if s.gateway == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	start := time.Now()
	err := s.gateway.ReplaceAll(ctx, s.records.All())
	s.metrics.ObserveSync(time.Since(start), err == nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "applicant sync failed",
			"request_id", requestcontext.RequestID(ctx),
			"records", s.records.Len(),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to persist applicants")
	}
	return nil
}
