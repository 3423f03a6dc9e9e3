// Package txqueue serializes all transaction submissions from a single
// (chain, account) pair through one owner goroutine: parallelizing sends
// from one master account races the nonce, so every caller posts a request
// into a queue and awaits a completion future instead of sending directly.
package txqueue

import (
	"context"
	"fmt"
	"sync"
)

// Job is one unit of serialized work: Run is invoked on the owner goroutine,
// never concurrently with any other Job on the same queue.
type Job func(ctx context.Context) (string, error)

type request struct {
	ctx    context.Context
	job    Job
	result chan result
}

type result struct {
	txHash string
	err    error
}

// Queue owns the single goroutine draining requests for one (chain, account)
// key. Submit blocks the caller until the job has run and returns its
// outcome; it never races a second Submit against the same key.
type Queue struct {
	requests chan request
	done     chan struct{}
}

func newQueue() *Queue {
	q := &Queue{
		requests: make(chan request),
		done:     make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	for req := range q.requests {
		txHash, err := req.job(req.ctx)
		req.result <- result{txHash: txHash, err: err}
	}
	close(q.done)
}

// Submit enqueues job and blocks until it has run on the owner goroutine,
// returning its transaction hash or error.
func (q *Queue) Submit(ctx context.Context, job Job) (string, error) {
	req := request{ctx: ctx, job: job, result: make(chan result, 1)}
	select {
	case q.requests <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case r := <-req.result:
		return r.txHash, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops accepting new work; in-flight jobs still complete.
func (q *Queue) Close() {
	close(q.requests)
	<-q.done
}

// Registry caches one Queue per (chain, account), mirroring
// ClientFactory.GetEVMClient's cache-by-key double-checked-locking shape.
type Registry struct {
	mu     sync.RWMutex
	queues map[string]*Queue
}

func NewRegistry() *Registry {
	return &Registry{queues: make(map[string]*Queue)}
}

// Owner returns the Queue for (chain, account), creating it on first use.
func (r *Registry) Owner(chain, account string) *Queue {
	key := fmt.Sprintf("%s:%s", chain, account)

	r.mu.RLock()
	q, ok := r.queues[key]
	r.mu.RUnlock()
	if ok {
		return q
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[key]; ok {
		return q
	}
	q = newQueue()
	r.queues[key] = q
	return q
}

// CloseAll closes every owned queue. Intended for test teardown and
// graceful shutdown of a long-running job process.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, q := range r.queues {
		q.Close()
		delete(r.queues, key)
	}
}
