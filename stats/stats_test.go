package stats

import (
	"testing"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		payoffs []float64
		mean    float64
		stdev   float64
	}
	cases := []tc{
		{[]float64{1, -1, 1, 1, 0, -1, 1.5, -1}, 0.1875, 1.0669549461635468},
		{[]float64{-1, -1, -1, -1}, -1, 0},
		{[]float64{1.5}, 1.5, 0},
		{[]float64{}, 0, 0},
		{[]float64{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, p := range c.payoffs {
			s.Push(p)
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Iterations(), len(c.payoffs))
	}
}

func TestMerge(t *testing.T) {
	is := is.New(t)
	samples := []float64{1, -1, 1, 1, 0, -1, 1.5, -1, 0, 1, -1}
	whole := &Statistic{}
	for _, v := range samples {
		whole.Push(v)
	}
	for split := 0; split <= len(samples); split++ {
		a, b := &Statistic{}, &Statistic{}
		for _, v := range samples[:split] {
			a.Push(v)
		}
		for _, v := range samples[split:] {
			b.Push(v)
		}
		a.Merge(b)
		is.Equal(a.Iterations(), whole.Iterations())
		is.True(FuzzyEqual(a.Mean(), whole.Mean()))
		is.True(FuzzyEqual(a.Variance(), whole.Variance()))
		is.Equal(a.Min(), -1.0)
		is.Equal(a.Max(), 1.5)
	}
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(50), 0.6744897501960817))
	is.True(Z95 > 1.959 && Z95 < 1.960)
	is.True(Z99 > 2.575 && Z99 < 2.576)
	is.True(Z95 < Z98 && Z98 < Z99)
}
