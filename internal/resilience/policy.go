package resilience

import "time"

// Policy enumerates the breaker and timeout tuning for one guarded operation.
type Policy struct {
	// WindowSize is the minimum number of recorded calls before the failure
	// ratio is evaluated.
	WindowSize uint32
	// FailureRatio trips the breaker when the share of failed calls in the
	// window reaches it (0.5 means 50%).
	FailureRatio float64
	// SlowCallDuration marks a call as abnormally slow. Slow calls count
	// toward the failure window even when they succeed.
	SlowCallDuration time.Duration
	// OpenWait is how long the breaker stays open before allowing probes.
	OpenWait time.Duration
	// HalfOpenProbes is the number of consecutive successful probe calls
	// required to close the breaker again.
	HalfOpenProbes uint32
	// CallTimeout is the hard per-call deadline. Exceeding it is a failure.
	CallTimeout time.Duration
}

// DefaultPolicy provides balanced settings for most remote dependencies:
// wider window, higher threshold, longer per-call budget.
func DefaultPolicy() Policy {
	return Policy{
		WindowSize:       10,
		FailureRatio:     0.50,
		SlowCallDuration: 2 * time.Second,
		OpenWait:         10 * time.Second,
		HalfOpenProbes:   3,
		CallTimeout:      5 * time.Second,
	}
}

// AccountServicePolicy trips faster and waits longer than the default: the
// account service sits on the request path, so a sick upstream should be
// shed quickly and probed conservatively.
func AccountServicePolicy() Policy {
	return Policy{
		WindowSize:       5,
		FailureRatio:     0.40,
		SlowCallDuration: 2 * time.Second,
		OpenWait:         20 * time.Second,
		HalfOpenProbes:   2,
		CallTimeout:      2 * time.Second,
	}
}
