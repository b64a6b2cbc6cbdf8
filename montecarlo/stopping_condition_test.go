package montecarlo

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/bjev/stats"
)

func TestShouldStop(t *testing.T) {
	is := is.New(t)
	st := &stats.Statistic{}
	for i := 0; i < stopCheckInterval-1; i++ {
		st.Push(float64(i%2*2 - 1))
	}
	// too few playouts, however wide the target
	is.True(!shouldStop(st, Stop95, 10))
	st.Push(1)
	is.True(shouldStop(st, Stop95, 10))
	is.True(!shouldStop(st, StopNone, 10))

	// stdev is about 1, so the 99% half-width is about 2.576/sqrt(1000)
	is.True(shouldStop(st, Stop99, 0.09))
	is.True(!shouldStop(st, Stop99, 0.07))
	is.True(shouldStop(st, Stop95, 0.07))
}
