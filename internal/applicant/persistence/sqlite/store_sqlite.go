package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"ktp/internal/applicant/models"
)

const batchSize = 200

// applicantRow is the GORM model of the applicants table.
type applicantRow struct {
	ID             string    `gorm:"primaryKey;size:50"`
	Seq            int       `gorm:"index;not null"`
	Name           string    `gorm:"size:100;not null"`
	Address        string    `gorm:"not null"`
	Region         string    `gorm:"size:50;not null"`
	Status         string    `gorm:"size:20;not null;default:pending"`
	SubmissionTime time.Time `gorm:"not null"`
}

func (applicantRow) TableName() string {
	return "applicants"
}

// Store persists applicants in a SQLite file through GORM.
type Store struct {
	db *gorm.DB
}

// New opens (or creates) the database at path and migrates the schema. An
// empty path uses a private in-memory database.
func New(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), fs.ModePerm); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// An in-memory database exists only on its one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("sqlite tracing: %w", err)
	}
	if err := db.AutoMigrate(&applicantRow{}); err != nil {
		return nil, fmt.Errorf("migrate applicants: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadAll returns the stored applicants in the order of the last ReplaceAll.
func (s *Store) LoadAll(ctx context.Context) ([]models.ApplicantRecord, error) {
	var rows []applicantRow
	if err := s.db.WithContext(ctx).Order("seq").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}

	applicants := make([]models.ApplicantRecord, 0, len(rows))
	for _, row := range rows {
		status, err := models.ParseStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("applicant %s: %w", row.ID, err)
		}
		applicants = append(applicants, models.ApplicantRecord{
			ID:             row.ID,
			Name:           row.Name,
			Address:        row.Address,
			Region:         row.Region,
			Status:         status,
			SubmissionTime: row.SubmissionTime,
		})
	}
	return applicants, nil
}

// ReplaceAll swaps the table contents inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, applicants []models.ApplicantRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&applicantRow{}).Error; err != nil {
			return fmt.Errorf("clear applicants: %w", err)
		}
		if len(applicants) == 0 {
			return nil
		}

		rows := make([]applicantRow, len(applicants))
		for i, a := range applicants {
			rows[i] = applicantRow{
				ID:             a.ID,
				Seq:            i,
				Name:           a.Name,
				Address:        a.Address,
				Region:         a.Region,
				Status:         string(a.Status),
				SubmissionTime: a.SubmissionTime,
			}
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("insert applicants: %w", err)
		}
		return nil
	})
}
