package txqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_SerializesConcurrentSubmits(t *testing.T) {
	reg := NewRegistry()
	q := reg.Owner("base", "0xabc")

	var inFlight int32
	var maxInFlight int32
	var mu sync.Mutex

	job := func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > maxInFlight {
			maxInFlight = n
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "0xhash", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(context.Background(), job)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight, "jobs on one queue must never run concurrently")
}

func TestRegistry_OwnerIsCachedPerKey(t *testing.T) {
	reg := NewRegistry()
	a := reg.Owner("base", "0xabc")
	b := reg.Owner("base", "0xabc")
	c := reg.Owner("polygon", "0xabc")

	require.Same(t, a, b)
	assert.NotSame(t, a, c)
	reg.CloseAll()
}

func TestQueue_SubmitPropagatesJobError(t *testing.T) {
	reg := NewRegistry()
	q := reg.Owner("base", "0xabc")
	_, err := q.Submit(context.Background(), func(ctx context.Context) (string, error) {
		return "", assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}
