package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jorabin/sounds/internal/cadence"
)

// ErrInvalidTransition is returned when an item is moved to a status that
// cannot follow its current one.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of an Item.
type Status int32

const (
	// Idle items are waiting in the queue
	Idle Status = iota

	// Started items are being played
	Started

	// Finished items played their full duration
	Finished

	// Abandoned items were cancelled, discarded or failed
	Abandoned
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Started:
		return "started"
	case Finished:
		return "finished"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	return s == Finished || s == Abandoned
}

// canAdvance lists the only legal transitions.
func canAdvance(from, to Status) bool {
	switch from {
	case Idle:
		return to == Started || to == Abandoned
	case Started:
		return to == Finished || to == Abandoned
	default:
		return false
	}
}

// Listener is called after every status change of an item.
type Listener func(item *Item, status Status)

type listener struct {
	id int
	fn Listener
}

// Item is one section waiting to be played.
type Item struct {
	ID      string
	Section *cadence.Section
	Created time.Time

	epoch uint64 // set by Queue.Offer

	mu        sync.Mutex
	status    Status
	listeners []listener
	nextID    int
	done      chan struct{}
}

// NewItem wraps section in an Idle item.
func NewItem(section *cadence.Section) *Item {
	return &Item{
		ID:      uuid.NewString(),
		Section: section,
		Created: time.Now(),
		done:    make(chan struct{}),
	}
}

// Duration is the section's target duration.
func (i *Item) Duration() time.Duration {
	if i.Section == nil {
		return 0
	}
	return time.Duration(i.Section.Duration) * time.Millisecond
}

// Status returns the current status.
func (i *Item) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// Done is closed when the item reaches Finished or Abandoned.
func (i *Item) Done() <-chan struct{} {
	return i.done
}

// AddListener registers fn for future transitions and returns a function
// that removes it.
func (i *Item) AddListener(fn Listener) (remove func()) {
	i.mu.Lock()
	defer i.mu.Unlock()

	id := i.nextID
	i.nextID++
	i.listeners = append(i.listeners, listener{id: id, fn: fn})

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		for n, l := range i.listeners {
			if l.id == id {
				i.listeners = append(i.listeners[:n:n], i.listeners[n+1:]...)
				return
			}
		}
	}
}

// Advance moves the item to status to and notifies listeners registered at
// the time of the change. Listeners run on the calling goroutine, outside
// the item's lock.
func (i *Item) Advance(to Status) error {
	i.mu.Lock()
	from := i.status
	if !canAdvance(from, to) {
		i.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s for item %s", ErrInvalidTransition, from, to, i.ID)
	}
	i.status = to
	if to.Terminal() {
		close(i.done)
	}
	snapshot := append([]listener(nil), i.listeners...)
	i.mu.Unlock()

	for _, l := range snapshot {
		i.notify(l.fn, to)
	}
	return nil
}

func (i *Item) notify(fn Listener, status Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("item listener panicked", "item", i.ID, "status", status, "panic", r)
		}
	}()
	fn(i, status)
}

// String describes the item for logs.
func (i *Item) String() string {
	name := ""
	if i.Section != nil {
		name = i.Section.Description
	}
	return fmt.Sprintf("%s (%s) %s", i.ID, name, i.Status())
}
