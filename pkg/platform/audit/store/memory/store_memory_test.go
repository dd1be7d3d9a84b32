package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "biogate/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for i, subj := range []string{"a@x", "b@x", "a@x", "c@x"} {
		require.NoError(t, s.Append(ctx, audit.Event{Subject: subj, Action: string(rune('0' + i))}))
	}

	t.Run("filters by subject", func(t *testing.T) {
		events, err := s.ListBySubject(ctx, "a@x")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("recent returns the tail", func(t *testing.T) {
		events, err := s.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "a@x", events[0].Subject)
		assert.Equal(t, "c@x", events[1].Subject)
	})

	t.Run("recent caps at available events", func(t *testing.T) {
		events, err := s.ListRecent(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, events, 4)
	})

	t.Run("clear empties the store", func(t *testing.T) {
		s.Clear()
		events, err := s.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
