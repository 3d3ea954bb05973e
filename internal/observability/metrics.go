package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Frame results recorded on the receive side.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultUnhandled = "unhandled"
	ResultRejected  = "rejected"
)

// The link label carries the configured link name. Per-connection ids stay in
// logs so reconnects do not grow the series set.
var (
	registerOnce sync.Once

	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "link",
			Name:      "frames_received_total",
			Help:      "Frames delimited on the receive side by result.",
		},
		[]string{"link", "tag", "result"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "link",
			Name:      "frames_sent_total",
			Help:      "Frames written to the transport.",
		},
		[]string{"link", "tag"},
	)
	sendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "link",
			Name:      "send_errors_total",
			Help:      "Frames that failed to encode or write.",
		},
		[]string{"link", "tag"},
	)
	bytesDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "link",
			Name:      "bytes_discarded_total",
			Help:      "Bytes dropped while resynchronizing after failed frames.",
		},
		[]string{"link"},
	)
	reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "link",
			Name:      "reconnects_total",
			Help:      "Transport reconnect attempts by outcome.",
		},
		[]string{"link", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesReceived, framesSent, sendErrors, bytesDiscarded, reconnects)
	})
}

func RecordFrameReceived(link, tag, result string) {
	RegisterMetrics()
	framesReceived.WithLabelValues(link, tag, result).Inc()
}

func RecordFrameSent(link, tag string) {
	RegisterMetrics()
	framesSent.WithLabelValues(link, tag).Inc()
}

func RecordSendError(link, tag string) {
	RegisterMetrics()
	sendErrors.WithLabelValues(link, tag).Inc()
}

func RecordBytesDiscarded(link string, n int) {
	RegisterMetrics()
	bytesDiscarded.WithLabelValues(link).Add(float64(n))
}

func RecordReconnect(link string, success bool) {
	RegisterMetrics()
	label := "false"
	if success {
		label = "true"
	}
	reconnects.WithLabelValues(link, label).Inc()
}
