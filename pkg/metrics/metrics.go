package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records owner login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_auth_attempts_total",
			Help: "Total number of owner login attempts",
		},
		[]string{"result"},
	)

	// GroupFormations counts group formation requests by terminal outcome
	// (completed|rejected|provisioning-failed).
	GroupFormations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_group_formations_total",
			Help: "Total number of group formation requests by outcome",
		},
		[]string{"outcome"},
	)

	// CollaboratorInvites counts collaborator provisioning results (invited|exists|error).
	CollaboratorInvites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_collaborator_invites_total",
			Help: "Total number of collaborator invitations by status",
		},
		[]string{"status"},
	)

	// GroupNotifications counts participant notification emails (sent|failed).
	GroupNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_group_notifications_total",
			Help: "Participant notification emails by result",
		},
		[]string{"result"},
	)

	// GitHubRequests counts outbound GitHub API calls by operation and HTTP status class.
	GitHubRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_github_requests_total",
			Help: "Total number of GitHub API requests",
		},
		[]string{"operation", "status"},
	)

	// OrgCacheLookups counts organization cache lookups (hit|miss).
	OrgCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitteams_org_cache_lookups_total",
			Help: "Organization list cache lookups",
		},
		[]string{"result"},
	)

	// RealtimeConnections tracks open websocket connections.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gitteams_realtime_connections",
			Help: "Open realtime websocket connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitteams_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
