// Package viz provides the terminal view of a running simulation.
//
// The view is a Bubble Tea program:
//
//   - [Model]: steps a [sim.Simulation] on every frame, draws the atom cloud
//     as a rotatable Braille point cloud with the beam axes, and plots the
//     history of one metric with asciigraph
//   - [Picker]: preset selection menu that opens a [Model]
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart from the initial configuration
//	Tab   - Cycle the plotted metric
//	T     - Cycle color themes
//	X/Y/Z - Rotate the camera (shift reverses)
//	+/-   - Zoom
//	?     - Show help overlay
package viz
