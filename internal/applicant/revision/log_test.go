package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ktp/internal/applicant/models"
)

func snapshotOf(id, address string) models.Snapshot {
	r := &models.ApplicantRecord{ID: id, Address: address}
	return r.Snapshot()
}

func TestLIFOPerRecord(t *testing.T) {
	log := New()
	log.Push("TX-1", snapshotOf("TX-1", "original"))
	log.Push("TX-1", snapshotOf("TX-1", "123 Main"))
	require.Equal(t, 2, log.Depth("TX-1"))

	snap, ok := log.Pop("TX-1")
	require.True(t, ok)
	assert.Equal(t, "123 Main", snap.Record().Address)

	snap, ok = log.Pop("TX-1")
	require.True(t, ok)
	assert.Equal(t, "original", snap.Record().Address)

	_, ok = log.Pop("TX-1")
	assert.False(t, ok)
	assert.Zero(t, log.Depth("TX-1"))
}

func TestInterleavedRecordsStayIsolated(t *testing.T) {
	log := New()
	log.Push("A", snapshotOf("A", "a-before"))
	log.Push("B", snapshotOf("B", "b-before"))

	snap, ok := log.Pop("A")
	require.True(t, ok)
	assert.Equal(t, "A", snap.Record().ID)
	assert.Equal(t, "a-before", snap.Record().Address)

	assert.Equal(t, 1, log.Depth("B"))
}

func TestPopUnknownAndDrop(t *testing.T) {
	log := New()
	_, ok := log.Pop("nobody")
	assert.False(t, ok)

	log.Push("A", snapshotOf("A", "x"))
	log.Drop("A")
	_, ok = log.Pop("A")
	assert.False(t, ok)
}
