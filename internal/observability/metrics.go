package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PointsAwarded counts points credited by reason (quiz, forum_answer, helpful_answer).
	PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_points_awarded_total",
		Help: "Total points credited to users by reason",
	}, []string{"reason"})

	// RankRecomputes counts global rank recomputations by outcome.
	RankRecomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_rank_recomputes_total",
		Help: "Total rank recomputation runs by outcome",
	}, []string{"outcome"})

	// LeaderboardSubscribers is the number of live leaderboard feeds.
	LeaderboardSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_leaderboard_subscribers",
		Help: "Number of connected leaderboard subscribers",
	})

	// HTTPRequests counts API requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPDuration records API latency by method and route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
