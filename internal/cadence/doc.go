// Package cadence describes telephone-style tone cadences and compiles
// ToneScript text into them.
//
// A ToneScript such as "350@-19,440@-19;10(*/0/1+2)" has an optional
// frequency list followed by one or two cadence sections. Each section is a
// target duration and a list of on/off segments that are looped or
// truncated to fill that duration. Parse turns the text into a Script; the
// playback package drives a Section against a tone renderer.
package cadence
