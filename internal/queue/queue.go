package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCapacity is the queue size used when none is given.
const DefaultCapacity = 16

// ErrQueueClosed is returned by Take once the queue is closed and empty.
var ErrQueueClosed = errors.New("queue is closed")

// Stats tracks queue activity.
type Stats struct {
	TotalOffered int64 // accepted by Offer
	TotalRefused int64 // rejected because full or closed
	TotalTaken   int64
	TotalDrained int64
	CurrentSize  int
	PeakSize     int
	LastOffer    time.Time
	LastTake     time.Time
}

// Queue is a bounded FIFO of items on a buffered channel. Offer never
// blocks; Take blocks until an item arrives or its context ends.
type Queue struct {
	items chan *Item

	mu     sync.Mutex
	closed bool
	epoch  uint64
	millis int64 // target durations of items still queued
	stats  Stats

	// closing wakes blocked Take calls once the queue is closed
	closing chan struct{}
}

// New creates a queue holding at most capacity items. A capacity below 1
// uses DefaultCapacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items:   make(chan *Item, capacity),
		closing: make(chan struct{}),
	}
}

// Offer appends item without blocking. It returns false when the queue is
// full or closed.
func (q *Queue) Offer(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.stats.TotalRefused++
		return false
	}

	item.epoch = q.epoch
	select {
	case q.items <- item:
	default:
		q.stats.TotalRefused++
		return false
	}

	q.millis += item.Duration().Milliseconds()
	q.stats.TotalOffered++
	q.stats.LastOffer = time.Now()
	if n := len(q.items); n > q.stats.PeakSize {
		q.stats.PeakSize = n
	}
	return true
}

// Take removes the oldest item, waiting until one is available. It returns
// ctx.Err() when ctx ends first and ErrQueueClosed once the queue is closed
// and empty.
func (q *Queue) Take(ctx context.Context) (*Item, error) {
	select {
	case item := <-q.items:
		q.took(item)
		return item, nil
	default:
	}

	select {
	case item := <-q.items:
		q.took(item)
		return item, nil
	case <-q.closing:
		// an item may have arrived before the close
		select {
		case item := <-q.items:
			q.took(item)
			return item, nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) took(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.millis -= item.Duration().Milliseconds()
	q.stats.TotalTaken++
	q.stats.LastTake = time.Now()
}

// Drain removes every queued item and returns them in FIFO order. Items
// offered before the drain that a consumer has already taken become stale.
func (q *Queue) Drain() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.epoch++
	var drained []*Item
	for {
		select {
		case item := <-q.items:
			q.millis -= item.Duration().Milliseconds()
			drained = append(drained, item)
		default:
			q.stats.TotalDrained += int64(len(drained))
			return drained
		}
	}
}

// Stale reports whether item was offered before the most recent Drain.
func (q *Queue) Stale(item *Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return item.epoch < q.epoch
}

// QueuedMillis is the sum of the target durations of queued items.
func (q *Queue) QueuedMillis() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.millis
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}

// Close refuses further offers and wakes blocked takers. Items already
// queued can still be taken or drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.closing)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// GetStats returns current queue statistics.
func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := q.stats
	s.CurrentSize = len(q.items)
	return s
}
