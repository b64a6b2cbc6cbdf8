package montecarlo

import "github.com/domino14/bjev/stats"

type StoppingCondition int

const (
	StopNone StoppingCondition = iota
	Stop95
	Stop98
	Stop99
)

// Stopping is checked at most this often, and never before this many
// playouts.
const stopCheckInterval = 1000

func (sc StoppingCondition) zval() float64 {
	switch sc {
	case Stop95:
		return stats.Z95
	case Stop98:
		return stats.Z98
	case Stop99:
		return stats.Z99
	}
	return 0
}

// shouldStop returns true once the confidence interval around the mean
// payoff is narrower than target on each side.
func shouldStop(st *stats.Statistic, sc StoppingCondition, target float64) bool {
	if sc == StopNone || st.Iterations() < stopCheckInterval {
		return false
	}
	return st.HalfWidth(sc.zval()) < target
}
