// Package audio renders sets of tones into looping clips and plays them
// through an output device. Synthesis uses gopxl/beep; real output goes
// through oto/v3.
package audio
