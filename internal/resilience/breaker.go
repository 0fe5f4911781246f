package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrOpen is returned without invoking the remote dependency while the
// breaker is open, or while the half-open probe quota is exhausted.
var ErrOpen = errors.New("circuit breaker open")

// errSlowCall feeds slow-but-successful calls into the breaker's failure
// accounting. It never escapes Do.
var errSlowCall = errors.New("slow call")

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "transaction_circuit_breaker_state",
	Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
}, []string{"breaker"})

// Breaker guards one remote operation with a failure-ratio circuit breaker
// and a hard per-call timeout. Business outcomes reported by the classifier
// do not count toward the failure window.
type Breaker struct {
	cb     *gobreaker.CircuitBreaker
	policy Policy
}

// NewBreaker builds a breaker for the named operation. isFault classifies
// which errors count as transport/server failures; everything else is treated
// as a business outcome and passes through without breaker accounting.
func NewBreaker(name string, policy Policy, isFault func(error) bool, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: policy.HalfOpenProbes,
		Timeout:     policy.OpenWait,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < policy.WindowSize {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= policy.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, errSlowCall) {
				return false
			}
			return !isFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateValue(to))
			logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), policy: policy}
}

// Do runs fn under the breaker with the policy's per-call timeout. A call
// exceeding SlowCallDuration is recorded as a failure even if it returned
// nil; the caller still observes success.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := b.cb.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, b.policy.CallTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(callCtx); err != nil {
			return nil, err
		}
		if time.Since(start) >= b.policy.SlowCallDuration {
			return nil, errSlowCall
		}
		return nil, nil
	})

	switch {
	case err == nil, errors.Is(err, errSlowCall):
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrOpen
	default:
		return err
	}
}

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
