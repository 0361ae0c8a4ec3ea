// internal/metrics/game.go
//
// Domain counters for games and the leaderboard protocol.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started, by level.",
		},
		[]string{"level"},
	)

	gamesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games reaching a terminal state, by level and state.",
		},
		[]string{"level", "state"},
	)

	scoreSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_submissions_total",
			Help:      "Score submissions, by the path that recorded them (platform, store, failed).",
		},
		[]string{"source"},
	)

	platformCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_calls_total",
			Help:      "Calls to the game-score platform, by method and result.",
		},
		[]string{"method", "result"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
		[]string{"name"},
	)
)

func GameStarted(level string) { gamesStarted.WithLabelValues(level).Inc() }

func GameFinished(level, state string) { gamesFinished.WithLabelValues(level, state).Inc() }

func ScoreSubmitted(source string) { scoreSubmissions.WithLabelValues(source).Inc() }

// PlatformCall records one upstream call; result is "ok" or "error".
func PlatformCall(method string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	platformCalls.WithLabelValues(method, result).Inc()
}

// BreakerState exports a circuit breaker's numeric state.
func BreakerState(name string, state int) { breakerState.WithLabelValues(name).Set(float64(state)) }
