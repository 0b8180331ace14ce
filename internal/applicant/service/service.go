package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ktp/internal/applicant/metrics"
	"ktp/internal/applicant/models"
	"ktp/internal/applicant/queue"
	"ktp/internal/applicant/revision"
	"ktp/internal/applicant/store/records"
	dErrors "ktp/pkg/domain-errors"
	"ktp/pkg/platform/sentinel"
)

// Gateway is the durable side of the applicant state. ReplaceAll must be
// all-or-nothing: a failed call leaves the previously stored rows intact.
type Gateway interface {
	LoadAll(ctx context.Context) ([]models.ApplicantRecord, error)
	ReplaceAll(ctx context.Context, applicants []models.ApplicantRecord) error
}

const defaultSyncTimeout = 5 * time.Second

// Service owns the in-memory applicant state: the record list, the
// verification queue and the per-record revision log. One mutex covers all
// three and the persistence sync, so every operation runs end-to-end without
// interleaving.
type Service struct {
	mu        sync.Mutex
	records   *records.List
	queue     *queue.Queue
	revisions *revision.Log
	ids       idGenerator

	gateway     Gateway
	syncTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger used for sync failures and startup.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSyncTimeout bounds each persistence sync. A sync that runs out of time
// counts as a persistence failure.
func WithSyncTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.syncTimeout = d
		}
	}
}

// WithTracer replaces the global "ktp/applicant" tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New creates a service backed by gateway. A nil gateway keeps state in
// memory only.
func New(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		records:     records.New(),
		queue:       queue.New(),
		revisions:   revision.New(),
		gateway:     gateway,
		syncTimeout: defaultSyncTimeout,
		tracer:      otel.Tracer("ktp/applicant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Load seeds the in-memory state from the gateway. Pending records join the
// verification queue in load order. It is meant to run once, at startup.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gateway == nil {
		return nil
	}
	rows, err := s.gateway.LoadAll(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "failed to load applicants")
	}

	for i := range rows {
		row := rows[i]
		if _, exists := s.records.FindByID(row.ID); exists {
			s.logger.WarnContext(ctx, "skipping duplicate applicant on load", "applicant_id", row.ID)
			continue
		}
		record := &row
		s.records.Append(record)
		if record.Status == models.StatusPending {
			s.queue.Enqueue(record)
		}
		s.ids.observe(record.ID)
	}
	s.metrics.SetSizes(s.records.Len(), s.queue.Len())
	s.logger.InfoContext(ctx, "applicants loaded",
		"records", s.records.Len(),
		"queued", s.queue.Len(),
	)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *Service) Get(ctx context.Context, id string) (*models.ApplicantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.records.FindByID(id)
	if !ok {
		return nil, errNotFound()
	}
	record := *node.Record
	return &record, nil
}

// List returns every record ordered by key. The stored order is unchanged.
func (s *Service) List(ctx context.Context, key models.SortKey) []models.ApplicantRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records.Sorted(key.Compare())
}

// Queue returns the records awaiting verification, next one first.
func (s *Service) Queue(ctx context.Context) []models.ApplicantRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queue.Pending()
}

func errNotFound() error {
	return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "applicant not found")
}
