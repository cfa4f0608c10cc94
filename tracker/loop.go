package tracker

import "context"

// Loop runs posted closures one at a time on a single goroutine. Sessions
// and their documents are only touched from inside the loop.
type Loop struct {
	jobs chan func()
	done chan struct{}
}

func NewLoop(depth int) *Loop {
	return &Loop{
		jobs: make(chan func(), depth),
		done: make(chan struct{}),
	}
}

// Post queues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.jobs <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.jobs:
			fn()
		}
	}
}
