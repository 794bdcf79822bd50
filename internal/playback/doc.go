// Package playback plays a cadence section through a renderer, looping its
// segments until the section's target duration has elapsed.
package playback
