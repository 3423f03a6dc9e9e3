package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestInsert_FirstSucceedsSecondRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Insert(ctx, "n1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Insert(ctx, "n1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweep_IsNoOp(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Sweep(context.Background()))
}
