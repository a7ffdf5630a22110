package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series needs at least 4 uniformly spaced samples")

// Spectrum is a one-sided power spectrum. Power[i] belongs to Freq[i] in
// hertz.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum transforms values sampled every interval seconds. The mean
// is removed first so the zero-frequency bin holds only numerical noise.
func PowerSpectrum(values []float64, interval float64) (*Spectrum, error) {
	n := len(values)
	if n < 4 || interval <= 0 {
		return nil, ErrShortSeries
	}

	mean := stat.Mean(values, nil)
	centred := make([]float64, n)
	for i, v := range values {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centred)

	s := &Spectrum{
		Freq:  make([]float64, len(coeffs)),
		Power: make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		s.Freq[i] = fft.Freq(i) / interval
		a := cmplx.Abs(c)
		s.Power[i] = a * a / float64(n)
	}
	return s, nil
}

// Dominant returns the frequency and power of the strongest non-zero bin.
func (s *Spectrum) Dominant() (float64, float64) {
	best, idx := 0.0, 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > best {
			best, idx = s.Power[i], i
		}
	}
	return s.Freq[idx], best
}

// SampleInterval returns the spacing of times, or ErrShortSeries if the
// spacing is not uniform to within 1%. The final sample of a run may be
// short and is ignored.
func SampleInterval(times []float64) (float64, int, error) {
	if len(times) < 5 {
		return 0, 0, ErrShortSeries
	}
	interval := times[1] - times[0]
	if interval <= 0 {
		return 0, 0, ErrShortSeries
	}
	n := len(times)
	for i := 2; i < len(times); i++ {
		d := times[i] - times[i-1]
		if d < 0.99*interval || d > 1.01*interval {
			if i == len(times)-1 {
				n = i
				break
			}
			return 0, 0, ErrShortSeries
		}
	}
	return interval, n, nil
}
