package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ktp/internal/applicant/models"
)

func TestToColumns(t *testing.T) {
	at := time.Date(2025, 3, 1, 8, 30, 0, 123000000, time.FixedZone("WIB", 7*3600))
	cols := toColumns([]models.ApplicantRecord{
		{ID: "JK-1", Name: "Sari", Address: "Jl. Sudirman", Region: "JK", Status: models.StatusPending, SubmissionTime: at},
		{ID: "BD-2", Name: "Budi", Address: "Jl. Asia Afrika", Region: "BD", Status: models.StatusVerified, SubmissionTime: at},
	})

	assert.Equal(t, []int64{0, 1}, cols.seqs)
	assert.Equal(t, []string{"JK-1", "BD-2"}, cols.ids)
	assert.Equal(t, []string{"pending", "verified"}, cols.statuses)
	assert.Equal(t, "2025-03-01T01:30:00.123Z", cols.submittedAt[0])
}

func TestSchemaIsIdempotent(t *testing.T) {
	assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS applicants")
	assert.Contains(t, Schema, "ADD COLUMN IF NOT EXISTS seq")
}
