// Package viz renders contact simulations in the terminal.
//
// The package implements two Bubble Tea programs:
//
//   - [Model]: live view that steps a configured system in real time and
//     draws its bodies and contact points on a Braille [Canvas]
//   - the preset browser started by [RunInteractive], which edits a preset
//     before handing it to the live view
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the system and restart
//	Tab   - Cycle the plotted recorder column
//	T     - Cycle color themes
//	?     - Show help overlay
//	[ ]   - Step through the replay history
//
// Contact slots are listed with their status colored by theme: inactive,
// active, sticking or sliding.
package viz
