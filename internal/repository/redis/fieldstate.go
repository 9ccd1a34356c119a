package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
)

const (
	seqKeyPrefix   = "skucheck:seq:"
	stateKeyPrefix = "skucheck:state:"
)

// FieldStateStore implements repository.FieldStateStore using Redis so that
// every service instance agrees on which check of a field is the latest.
type FieldStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFieldStateStore creates a new Redis-backed field state store. Keys
// expire ttl after the field's last check.
func NewFieldStateStore(client *redis.Client, ttl time.Duration) *FieldStateStore {
	return &FieldStateStore{
		client: client,
		ttl:    ttl,
	}
}

func seqKey(ref repository.FieldRef) string {
	return seqKeyPrefix + ref.DocumentID + ":" + ref.FieldPath
}

func stateKey(documentID string) string {
	return stateKeyPrefix + documentID
}

// Next increments the field's sequence counter.
func (s *FieldStateStore) Next(ctx context.Context, ref repository.FieldRef) (int64, error) {
	key := seqKey(ref)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr field seq: %w", err)
	}
	return incr.Val(), nil
}

// Commit stores check under WATCH on the sequence key, so a Next from any
// instance between the read and the write aborts the commit.
func (s *FieldStateStore) Commit(ctx context.Context, ref repository.FieldRef, check repository.FieldCheck) (bool, error) {
	key := seqKey(ref)

	data, err := json.Marshal(check)
	if err != nil {
		return false, fmt.Errorf("marshal field check: %w", err)
	}

	committed := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		latest, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if latest != check.Seq {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, stateKey(ref.DocumentID), ref.FieldPath, data)
			pipe.Expire(ctx, stateKey(ref.DocumentID), s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		committed = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis commit field check: %w", err)
	}
	return committed, nil
}

// List returns every committed field check of a document ordered by field path.
func (s *FieldStateStore) List(ctx context.Context, documentID string) ([]repository.FieldCheck, error) {
	fields, err := s.client.HGetAll(ctx, stateKey(documentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall field checks: %w", err)
	}

	checks := make([]repository.FieldCheck, 0, len(fields))
	for path, raw := range fields {
		var c repository.FieldCheck
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("unmarshal field check %s: %w", path, err)
		}
		checks = append(checks, c)
	}

	sort.Slice(checks, func(i, j int) bool { return checks[i].FieldPath < checks[j].FieldPath })
	return checks, nil
}
