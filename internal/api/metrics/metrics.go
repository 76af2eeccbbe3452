// Package metrics defines all custom Prometheus metrics for the referral
// API. It is the single source of truth for metric names, labels, and help
// strings; metrics register themselves with the default registry via
// promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "referral"

// ── Registration / authentication ─────────────────────────────────────────

// RegistrationsTotal counts registration requests by outcome.
// Label:
//   - result: "created", "repeated" (idempotent replay) or "rejected"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration requests, by result.",
	},
	[]string{"result"},
)

// VerificationsTotal counts phone-code authentication attempts.
// Label:
//   - result: "success" or "failure"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of verification attempts, by result.",
	},
	[]string{"result"},
)

// ── Invite codes ──────────────────────────────────────────────────────────

// RedemptionsTotal counts invite-code redemption attempts.
// Label:
//   - result: "success", "already_redeemed", "self_referral", "unknown_code"
var RedemptionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redemptions_total",
		Help:      "Total number of invite code redemption attempts, by result.",
	},
	[]string{"result"},
)

// ── SMS delivery ──────────────────────────────────────────────────────────

// SMSEnqueuedTotal counts verification codes handed to the dispatcher.
var SMSEnqueuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_enqueued_total",
		Help:      "Total number of SMS messages enqueued for delivery.",
	},
)

// SMSDroppedTotal counts messages dropped because a worker queue was full.
var SMSDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_dropped_total",
		Help:      "Total number of SMS messages dropped due to full queues.",
	},
)

// SMSQueueDepth tracks pending messages per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SMSQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sms_queue_depth",
		Help:      "Current number of SMS messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
