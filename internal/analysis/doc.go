// Package analysis summarizes recorded runs.
//
//   - [PowerSpectrum]: magnitude spectrum of a series
//   - [DominantPeriod]: strongest non-constant oscillation, in ticks
//   - [ReturnMap]: delay embedding of a series for phase plots
//   - [Summarize]: population, traffic and direction totals
//
// A population series that pulses with a steady period shows up as a sharp
// peak:
//
//	period, power, err := analysis.DominantPeriod(pop)
package analysis
