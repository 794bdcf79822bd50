// Package player runs cadence sections one after another on a dedicated
// worker goroutine. Callers enqueue sections and may wait for them to
// finish; playback can be cancelled at any time.
package player
