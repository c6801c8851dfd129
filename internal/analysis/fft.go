package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Amplitudes is a one-sided amplitude spectrum.
type Amplitudes struct {
	Freq []float64
	Amp  []float64
}

// Spectrum returns the amplitude spectrum of samples taken every dt. The mean
// is removed first; NaN padding is treated as zero.
func Spectrum(samples []float64, dt float64) (*Amplitudes, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %g", dt)
	}
	n := len(samples)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 samples, got %d", n)
	}

	x := make([]float64, n)
	mean, count := 0.0, 0
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		x[i] = v
		mean += v
		count++
	}
	if count > 0 {
		mean /= float64(count)
	}
	for i, v := range samples {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			x[i] -= mean
		}
	}

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	s := &Amplitudes{Freq: make([]float64, half), Amp: make([]float64, half)}
	for k := 0; k < half; k++ {
		s.Freq[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k]) / float64(n)
		if k > 0 && 2*k != n {
			a *= 2
		}
		s.Amp[k] = a
	}
	return s, nil
}

// Peak returns the frequency and amplitude of the largest non-DC component.
func (s *Amplitudes) Peak() (freq, amp float64) {
	for k := 1; k < len(s.Amp); k++ {
		if s.Amp[k] > amp {
			freq, amp = s.Freq[k], s.Amp[k]
		}
	}
	return freq, amp
}

// HighFraction is the share of spectral power above frac times the Nyquist
// frequency.
func (s *Amplitudes) HighFraction(frac float64) float64 {
	if len(s.Freq) == 0 {
		return 0
	}
	cut := frac * s.Freq[len(s.Freq)-1]
	total, high := 0.0, 0.0
	for k := 1; k < len(s.Amp); k++ {
		p := s.Amp[k] * s.Amp[k]
		total += p
		if s.Freq[k] > cut {
			high += p
		}
	}
	if total == 0 {
		return 0
	}
	return high / total
}
