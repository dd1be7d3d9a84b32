// Package redis keeps a capped audit trail in a Redis list, newest first.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	audit "biogate/pkg/platform/audit"
)

const defaultKey = "biogate:audit:events"

// Store appends JSON-encoded events to a capped list.
type Store struct {
	client redis.Cmdable
	key    string
	maxLen int64
}

type Option func(*Store)

// WithKey overrides the list key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New builds a store capped at maxLen entries (unbounded when <= 0).
func New(client redis.Cmdable, maxLen int64, opts ...Option) *Store {
	s := &Store{client: client, key: defaultKey, maxLen: maxLen}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, payload)
		if s.maxLen > 0 {
			pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]audit.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return decode(raw)
}

// ListBySubject scans the capped list for one subject, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	all, err := decode(raw)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func decode(raw []string) ([]audit.Event, error) {
	events := make([]audit.Event, 0, len(raw))
	for _, item := range raw {
		var e audit.Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}
