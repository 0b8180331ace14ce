package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ktp/internal/applicant/models"
	dErrors "ktp/pkg/domain-errors"
	"ktp/pkg/platform/sentinel"
	"ktp/pkg/requestcontext"
)

// Submit registers a new application as pending and queues it for verification.
func (s *Service) Submit(ctx context.Context, in models.SubmitInput) (result *models.ApplicantRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "applicant.Submit", trace.WithAttributes(attribute.String("applicant.region", in.Region)))
	defer func() { s.finish(span, "submit", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := requestcontext.Now(ctx)
	record := &models.ApplicantRecord{
		ID:             s.ids.next(in.Region, now, s.taken),
		Name:           in.Name,
		Address:        in.Address,
		Region:         in.Region,
		Status:         models.StatusPending,
		SubmissionTime: now,
	}
	s.records.Append(record)
	s.queue.Enqueue(record)
	span.SetAttributes(attribute.String("applicant.id", record.ID))

	// The record stays queued after a failed sync; name it so a client can
	// look it up instead of submitting again.
	if err := s.sync(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "application "+record.ID+" accepted but not yet persisted")
	}
	created := *record
	return &created, nil
}

// Edit overlays fields onto the record after saving its current state to the
// record's revision history. Verified records can no longer be edited.
func (s *Service) Edit(ctx context.Context, id string, fields models.Fields) (result *models.ApplicantRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "applicant.Edit", trace.WithAttributes(attribute.String("applicant.id", id)))
	defer func() { s.finish(span, "edit", err) }()

	if err := fields.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.records.FindByID(id)
	if !ok {
		return nil, errNotFound()
	}
	record := node.Record
	if record.Status.IsTerminal() {
		return nil, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "applicant already verified")
	}

	s.revisions.Push(id, record.Snapshot())
	span.SetAttributes(attribute.Int("applicant.undo_depth", s.revisions.Depth(id)))
	record.Apply(fields)
	record.Status = models.StatusRevision

	if err := s.sync(ctx); err != nil {
		return nil, err
	}
	updated := *record
	return &updated, nil
}

// Verify marks the application at the head of the queue as verified. The
// queue shares the record with the list, so the list sees the new status.
func (s *Service) Verify(ctx context.Context) (result *models.ApplicantRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "applicant.Verify")
	defer func() { s.finish(span, "verify", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.queue.Dequeue()
	if !ok {
		return nil, dErrors.New(dErrors.CodeQueueEmpty, "nothing to verify")
	}
	record.Status = models.StatusVerified
	s.revisions.Drop(record.ID)
	span.SetAttributes(attribute.String("applicant.id", record.ID))

	if err := s.sync(ctx); err != nil {
		return nil, err
	}
	verified := *record
	return &verified, nil
}

// Undo restores the most recent snapshot taken for id, status included.
func (s *Service) Undo(ctx context.Context, id string) (result *models.ApplicantRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "applicant.Undo", trace.WithAttributes(attribute.String("applicant.id", id)))
	defer func() { s.finish(span, "undo", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.records.FindByID(id)
	if !ok {
		return nil, errNotFound()
	}
	record := node.Record
	if record.Status.IsTerminal() {
		return nil, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeConflict, "applicant already verified")
	}

	snapshot, ok := s.revisions.Pop(id)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNothingToUndo, "nothing to undo")
	}
	record.Restore(snapshot)
	span.SetAttributes(attribute.Int("applicant.undo_depth", s.revisions.Depth(id)))

	if err := s.sync(ctx); err != nil {
		return nil, err
	}
	restored := *record
	return &restored, nil
}

func (s *Service) taken(id string) bool {
	_, ok := s.records.FindByID(id)
	return ok
}

// finish closes the span and counts the outcome. Must run after the mutex is released.
func (s *Service) finish(span trace.Span, operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeInternal)
		if de, ok := dErrors.As(err); ok {
			outcome = string(de.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
	s.metrics.IncrementOperation(operation, outcome)
}
