// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mssql_mcp_build_info",
			Help: "Build information of the MSSQL MCP server",
		},
		[]string{"name", "version"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mssql_mcp_tool_calls_total",
			Help: "Total number of tool calls",
		},
		[]string{"tool", "status"},
	)

	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mssql_mcp_tool_call_duration_seconds",
			Help:    "Duration of tool calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 0.01s to ~41s
		},
		[]string{"tool"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mssql_mcp_queries_total",
			Help: "Total number of database statements executed",
		},
		[]string{"kind", "status"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mssql_mcp_query_duration_seconds",
			Help:    "Duration of database statements, connection setup included",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 0.001s to ~16s
		},
		[]string{"kind"},
	)
)

// Status maps an error to the status label value.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
