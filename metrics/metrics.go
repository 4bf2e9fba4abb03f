// Package metrics exposes Prometheus instrumentation for tournaments and the
// HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "musikmadness"

// Recorder holds every collector. A nil *Recorder records nothing, so
// components can be built without instrumentation.
type Recorder struct {
	tournamentsBegun    prometheus.Counter
	beginConflicts      prometheus.Counter
	tournamentsDone     prometheus.Counter
	matchupsDecided     prometheus.Counter
	byesAutoResolved    prometheus.Counter
	bracketGeneration   prometheus.Histogram
	archiveFailures     prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewRecorder registers the collectors on reg. Passing nil uses the default
// registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	auto := promauto.With(reg)

	return &Recorder{
		tournamentsBegun: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "tournaments_begun_total",
			Help:      "Tournaments moved from upcoming to ongoing.",
		}),
		beginConflicts: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "begin_conflicts_total",
			Help:      "Begin requests rejected because the tournament had already begun.",
		}),
		tournamentsDone: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "tournaments_completed_total",
			Help:      "Tournaments whose final was decided.",
		}),
		matchupsDecided: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "matchups_decided_total",
			Help:      "Matchup winners recorded by organizers.",
		}),
		byesAutoResolved: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "byes_auto_resolved_total",
			Help:      "Matchups won automatically against a BYE.",
		}),
		bracketGeneration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "generation_seconds",
			Help:      "Time spent seeding and generating a bracket.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		archiveFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bracket",
			Name:      "archive_failures_total",
			Help:      "Bracket snapshots that could not be uploaded to object storage.",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (r *Recorder) TournamentBegun(generation time.Duration, byes int) {
	if r == nil {
		return
	}
	r.tournamentsBegun.Inc()
	r.bracketGeneration.Observe(generation.Seconds())
	r.byesAutoResolved.Add(float64(byes))
}

func (r *Recorder) BeginConflict() {
	if r == nil {
		return
	}
	r.beginConflicts.Inc()
}

func (r *Recorder) MatchupDecided(autoResolvedByes int, completed bool) {
	if r == nil {
		return
	}
	r.matchupsDecided.Inc()
	r.byesAutoResolved.Add(float64(autoResolvedByes))
	if completed {
		r.tournamentsDone.Inc()
	}
}

func (r *Recorder) ArchiveFailed() {
	if r == nil {
		return
	}
	r.archiveFailures.Inc()
}

func (r *Recorder) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, statusLabel(code)).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func statusLabel(code int) string {
	if code == 0 {
		code = 200
	}
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
