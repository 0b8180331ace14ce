package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ktp/internal/applicant/models"
	"ktp/pkg/platform/sentinel"
)

// DefaultKey is the list holding the applicant snapshot.
const DefaultKey = "ktp:applicants"

// RedisStore keeps the applicant list as one Redis list of JSON rows.
// ReplaceAll runs DEL + RPUSH inside MULTI/EXEC, so readers see either the
// old or the new list.
type RedisStore struct {
	client *redis.Client
	key    string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKey overrides DefaultKey.
func WithKey(key string) RedisStoreOption {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// New constructs a Redis-backed applicant store.
func New(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, key: DefaultKey}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type row struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Region         string    `json:"region"`
	Status         string    `json:"status"`
	SubmissionTime time.Time `json:"submission_time"`
}

func encodeRow(a models.ApplicantRecord) ([]byte, error) {
	return json.Marshal(row{
		ID:             a.ID,
		Name:           a.Name,
		Address:        a.Address,
		Region:         a.Region,
		Status:         string(a.Status),
		SubmissionTime: a.SubmissionTime,
	})
}

func decodeRow(raw string) (models.ApplicantRecord, error) {
	var r row
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return models.ApplicantRecord{}, fmt.Errorf("unmarshal applicant: %w", err)
	}
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return models.ApplicantRecord{}, fmt.Errorf("applicant %s: %w", r.ID, err)
	}
	return models.ApplicantRecord{
		ID:             r.ID,
		Name:           r.Name,
		Address:        r.Address,
		Region:         r.Region,
		Status:         status,
		SubmissionTime: r.SubmissionTime,
	}, nil
}

// LoadAll returns the stored applicants in list order.
func (s *RedisStore) LoadAll(ctx context.Context) ([]models.ApplicantRecord, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis applicant store: %w", sentinel.ErrUnavailable)
	}
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load applicants: %w", err)
	}
	applicants := make([]models.ApplicantRecord, 0, len(raw))
	for _, item := range raw {
		a, err := decodeRow(item)
		if err != nil {
			return nil, err
		}
		applicants = append(applicants, a)
	}
	return applicants, nil
}

// ReplaceAll atomically swaps the stored list.
func (s *RedisStore) ReplaceAll(ctx context.Context, applicants []models.ApplicantRecord) error {
	if s.client == nil {
		return fmt.Errorf("redis applicant store: %w", sentinel.ErrUnavailable)
	}
	values := make([]any, 0, len(applicants))
	for _, a := range applicants {
		encoded, err := encodeRow(a)
		if err != nil {
			return fmt.Errorf("marshal applicant %s: %w", a.ID, err)
		}
		values = append(values, encoded)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.RPush(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace applicants: %w", err)
	}
	return nil
}
