package player

import "errors"

var (
	// ErrQueueFull is returned when a section could not be queued because
	// the queue is at capacity or the player is shutting down
	ErrQueueFull = errors.New("playback queue is full")

	// ErrWaitTimeout is returned when a blocking submit gave up before the
	// item finished. It indicates a missed notification or a renderer that
	// overran its duration.
	ErrWaitTimeout = errors.New("timed out waiting for playback")

	// ErrAlreadyOpen is returned by a second call to Open
	ErrAlreadyOpen = errors.New("player is already open")

	// ErrShutdown is returned by Open after Shutdown
	ErrShutdown = errors.New("player is shut down")
)
