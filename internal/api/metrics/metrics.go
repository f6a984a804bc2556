// Package metrics defines and registers the custom Prometheus metrics of the
// CRM API. HTTP request metrics come from the echoprometheus middleware; the
// counters here track domain events.
//
// All metrics register with the default registry at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Auth ──────────────────────────────────────────────────────────────────────

// TokensIssuedTotal counts issued bearer tokens.
// Label:
//   - method: "register", "password" or "admin_key"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of bearer tokens issued, by issuance path.",
	},
	[]string{"method"},
)

// AuthFailuresTotal counts rejected credential checks.
// Label:
//   - reason: "unknown_email", "bad_password", "bad_admin_key" or "invalid_token"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected logins and bearer tokens.",
	},
	[]string{"reason"},
)

// ── Customers ─────────────────────────────────────────────────────────────────

var CustomersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_created_total",
		Help:      "Total number of customers created.",
	},
)

// CascadeDeletedLeadsTotal counts leads removed because their customer was deleted.
var CascadeDeletedLeadsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_deleted_leads_total",
		Help:      "Total number of leads removed by customer deletion.",
	},
)

// ── Leads ─────────────────────────────────────────────────────────────────────

var LeadsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leads_created_total",
		Help:      "Total number of leads created.",
	},
)

// LeadStatusChangesTotal counts lead status changes.
// Labels:
//   - status: the new status (e.g. "Converted")
//   - role: role of the caller that changed it
var LeadStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_status_changes_total",
		Help:      "Total number of lead status changes, by new status and caller role.",
	},
	[]string{"status", "role"},
)

// LeadStatsCacheTotal counts lead stats cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var LeadStatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_stats_cache_total",
		Help:      "Total number of lead stats cache lookups, by result.",
	},
	[]string{"result"},
)
