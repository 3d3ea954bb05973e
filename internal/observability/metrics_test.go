package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordFrameReceived("link-a", "AB", ResultSucceeded)
	RecordFrameReceived("link-a", "AB", ResultSucceeded)
	RecordFrameReceived("link-a", "A3", ResultFailed)
	RecordFrameSent("link-a", "AB")
	RecordSendError("link-a", "DS")
	RecordBytesDiscarded("link-a", 28)
	RecordReconnect("link-a", false)

	if got := testutil.ToFloat64(framesReceived.WithLabelValues("link-a", "AB", ResultSucceeded)); got != 2 {
		t.Fatalf("frames received=%v", got)
	}
	if got := testutil.ToFloat64(bytesDiscarded.WithLabelValues("link-a")); got != 28 {
		t.Fatalf("bytes discarded=%v", got)
	}
	if got := testutil.ToFloat64(reconnects.WithLabelValues("link-a", "false")); got != 1 {
		t.Fatalf("reconnects=%v", got)
	}

	log.Info().Msg("observability/metrics: registration idempotent and recording paths executed")
}
