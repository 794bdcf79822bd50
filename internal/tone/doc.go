// Package tone models a single audible tone: a frequency paired with an
// amplitude. Tones are immutable values and compare by exact frequency and
// amplitude, so they can be used directly as map keys.
package tone
