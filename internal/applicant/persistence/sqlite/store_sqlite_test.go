package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"ktp/internal/applicant/models"
	"ktp/internal/applicant/service"
	dErrors "ktp/pkg/domain-errors"
)

type SQLiteStoreSuite struct {
	suite.Suite
	store    *Store
	failNext atomic.Bool
	ctx      context.Context
}

func TestSQLiteStoreSuite(t *testing.T) {
	suite.Run(t, new(SQLiteStoreSuite))
}

func (s *SQLiteStoreSuite) SetupTest() {
	store, err := New("")
	s.Require().NoError(err)
	s.store = store
	s.failNext.Store(false)
	s.ctx = context.Background()

	// Fail inserts on demand, after the DELETE already ran inside the transaction.
	err = store.db.Callback().Create().Before("gorm:create").Register("test:fail_insert", func(tx *gorm.DB) {
		if s.failNext.CompareAndSwap(true, false) {
			_ = tx.AddError(errors.New("disk I/O error"))
		}
	})
	s.Require().NoError(err)
}

func (s *SQLiteStoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *SQLiteStoreSuite) TestRoundTripPreservesOrder() {
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := []models.ApplicantRecord{
		{ID: "TX-3", Name: "C", Address: "3", Region: "TX", Status: models.StatusRevision, SubmissionTime: at.Add(2 * time.Second)},
		{ID: "NY-1", Name: "A", Address: "1", Region: "NY", Status: models.StatusPending, SubmissionTime: at},
	}
	s.Require().NoError(s.store.ReplaceAll(s.ctx, rows))

	loaded, err := s.store.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 2)
	s.Equal("TX-3", loaded[0].ID)
	s.Equal(models.StatusRevision, loaded[0].Status)
	s.Equal("NY-1", loaded[1].ID)
	s.True(at.Equal(loaded[1].SubmissionTime))
}

func (s *SQLiteStoreSuite) TestDuplicateIDsRollBack() {
	first := models.ApplicantRecord{ID: "NY-1", Name: "A", Address: "1", Region: "NY", Status: models.StatusPending, SubmissionTime: time.Now()}
	s.Require().NoError(s.store.ReplaceAll(s.ctx, []models.ApplicantRecord{first}))

	err := s.store.ReplaceAll(s.ctx, []models.ApplicantRecord{first, first})
	s.Require().Error(err)

	loaded, err := s.store.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Len(loaded, 1)
}

// TestFailedSyncAfterEditKeepsPreEditStateDurable simulates a restart after a
// sync that failed mid-transaction.
func (s *SQLiteStoreSuite) TestFailedSyncAfterEditKeepsPreEditStateDurable() {
	svc := service.New(s.store)
	s.Require().NoError(svc.Load(s.ctx))

	record, err := svc.Submit(s.ctx, models.SubmitInput{Name: "R", Address: "1 Old Rd", Region: "TX"})
	s.Require().NoError(err)

	newAddress := "123 Main"
	s.failNext.Store(true)
	_, err = svc.Edit(s.ctx, record.ID, models.Fields{Address: &newAddress})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePersistence))

	restarted := service.New(s.store)
	s.Require().NoError(restarted.Load(s.ctx))
	got, err := restarted.Get(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("1 Old Rd", got.Address)
	s.Equal(models.StatusPending, got.Status)
}

func (s *SQLiteStoreSuite) TestFileBackedDatabaseSurvivesReopen() {
	path := filepath.Join(s.T().TempDir(), "data", "ktp.sqlite")
	store, err := New(path)
	s.Require().NoError(err)
	s.Require().NoError(store.ReplaceAll(s.ctx, []models.ApplicantRecord{
		{ID: "JK-1", Name: "Sari", Address: "Jl. Thamrin", Region: "JK", Status: models.StatusPending, SubmissionTime: time.Now()},
	}))
	s.Require().NoError(store.Close())

	reopened, err := New(path)
	s.Require().NoError(err)
	defer reopened.Close()

	loaded, err := reopened.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Equal("Jl. Thamrin", loaded[0].Address)
}
