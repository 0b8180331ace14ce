//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ktp/internal/applicant/models"
	applicantredis "ktp/internal/applicant/persistence/redis"
	"ktp/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *applicantredis.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = applicantredis.New(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestReplaceAllRoundTrip() {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := []models.ApplicantRecord{
		{ID: "NY-1", Name: "A", Address: "1", Region: "NY", Status: models.StatusPending, SubmissionTime: at},
		{ID: "CA-2", Name: "B", Address: "2", Region: "CA", Status: models.StatusVerified, SubmissionTime: at.Add(time.Second)},
	}
	s.Require().NoError(s.store.ReplaceAll(ctx, rows))

	loaded, err := s.store.LoadAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 2)
	s.Equal("NY-1", loaded[0].ID)
	s.Equal(models.StatusVerified, loaded[1].Status)

	s.Require().NoError(s.store.ReplaceAll(ctx, rows[:1]))
	loaded, err = s.store.LoadAll(ctx)
	s.Require().NoError(err)
	s.Len(loaded, 1)
}

func (s *RedisStoreSuite) TestEmptyKeyLoadsNothing() {
	loaded, err := s.store.LoadAll(context.Background())
	s.Require().NoError(err)
	s.Empty(loaded)
}
