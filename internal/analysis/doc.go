// Package analysis post-processes recorded runs.
//
//   - [Spectrum]: amplitude spectrum of a column, used to spot contact force
//     chatter in time-stepping runs
//   - [PhasePortrait]: 2D trajectory of two columns rendered as text
//   - [Sweep]: one model run per parameter value, in parallel
//
// A column from a time-stepping run whose spectrum puts most of its energy
// near the Nyquist frequency is chattering:
//
//	s, _ := analysis.Spectrum(la, dt)
//	if s.HighFraction(0.5) > 0.3 {
//	    // switch the contact to regularized mode
//	}
package analysis
