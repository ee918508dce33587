// Package viz renders a running simulation in the terminal.
//
// The view is a Bubble Tea program fed by a [sim.Scheduler]:
//
//   - [Model]: live network view with controls and a population chart
//   - [Canvas]: braille pixel canvas with per-cell color
//   - [RunInteractive]: preset picker in front of the live view
//
// # Key Bindings
//
//	F/E/W  - Toggle Feedback Loop, Emergence, Energy Flow
//	+/-    - Complexity up/down
//	Tab    - Select coupling pair
//	Up/Dn  - Coupling +/- 0.1
//	R      - Reset
//	Space  - Pause/Resume
//	T      - Cycle color themes
//	S      - Save the current frame as SVG
//	?      - Show help overlay
package viz
