// Package queue holds playback work items and the bounded FIFO that feeds
// them to a player's worker.
package queue
