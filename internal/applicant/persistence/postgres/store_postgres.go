package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/lib/pq"

	"ktp/internal/applicant/models"
	txcontext "ktp/pkg/platform/tx"
)

// Schema creates the applicants table. It is idempotent.
//
//go:embed schema.sql
var Schema string

// PostgresStore persists the applicant list in PostgreSQL, one row per
// record, replacing the whole table on every sync.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithTimeout bounds a ReplaceAll transaction when the caller set no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		s.timeout = d
	}
}

// New constructs a PostgreSQL-backed applicant store.
func New(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, timeout: txcontext.DefaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply applicants schema: %w", err)
	}
	return nil
}

// LoadAll returns the stored applicants in the order of the last ReplaceAll.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]models.ApplicantRecord, error) {
	query := `
		SELECT id, name, address, region, status, submission_time
		FROM applicants
		ORDER BY seq, submission_time, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}
	defer rows.Close()

	var applicants []models.ApplicantRecord
	for rows.Next() {
		var (
			record models.ApplicantRecord
			status string
		)
		if err := rows.Scan(&record.ID, &record.Name, &record.Address, &record.Region, &status, &record.SubmissionTime); err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		if record.Status, err = models.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("applicant %s: %w", record.ID, err)
		}
		applicants = append(applicants, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return applicants, nil
}

// ReplaceAll deletes every row and inserts applicants in one transaction.
// Rows go in as column arrays expanded by unnest, one round trip regardless
// of table size.
func (s *PostgresStore) ReplaceAll(ctx context.Context, applicants []models.ApplicantRecord) error {
	return txcontext.Run(ctx, s.db, s.timeout, func(ctx context.Context) error {
		ex := s.execer(ctx)
		if _, err := ex.ExecContext(ctx, `DELETE FROM applicants`); err != nil {
			return fmt.Errorf("clear applicants: %w", err)
		}
		if len(applicants) == 0 {
			return nil
		}

		cols := toColumns(applicants)
		query := `
			INSERT INTO applicants (seq, id, name, address, region, status, submission_time)
			SELECT * FROM unnest(
				$1::int[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::timestamptz[]
			)
		`
		_, err := ex.ExecContext(ctx, query,
			pq.Array(cols.seqs),
			pq.Array(cols.ids),
			pq.Array(cols.names),
			pq.Array(cols.addresses),
			pq.Array(cols.regions),
			pq.Array(cols.statuses),
			pq.Array(cols.submittedAt),
		)
		if err != nil {
			return fmt.Errorf("insert applicants: %w", err)
		}
		return nil
	})
}

type columns struct {
	seqs        []int64
	ids         []string
	names       []string
	addresses   []string
	regions     []string
	statuses    []string
	submittedAt []string
}

func toColumns(applicants []models.ApplicantRecord) columns {
	n := len(applicants)
	cols := columns{
		seqs:        make([]int64, n),
		ids:         make([]string, n),
		names:       make([]string, n),
		addresses:   make([]string, n),
		regions:     make([]string, n),
		statuses:    make([]string, n),
		submittedAt: make([]string, n),
	}
	for i, a := range applicants {
		cols.seqs[i] = int64(i)
		cols.ids[i] = a.ID
		cols.names[i] = a.Name
		cols.addresses[i] = a.Address
		cols.regions[i] = a.Region
		cols.statuses[i] = string(a.Status)
		cols.submittedAt[i] = a.SubmissionTime.UTC().Format(time.RFC3339Nano)
	}
	return cols
}
