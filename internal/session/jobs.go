package session

import (
	"context"
	"sync"
)

// jobQueue runs jobs one at a time in push order. push never blocks, so
// the gate loop stays responsive while a job waits on the network.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []func(ctx context.Context)
	signal chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{signal: make(chan struct{}, 1)}
}

func (q *jobQueue) push(job func(ctx context.Context)) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *jobQueue) pop() (func(ctx context.Context), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, true
}

func (q *jobQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
		for {
			job, ok := q.pop()
			if !ok {
				break
			}
			job(ctx)
			if ctx.Err() != nil {
				return
			}
		}
	}
}
