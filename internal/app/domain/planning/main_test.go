package planning

import (
	"os"
	"testing"

	"github.com/voyplan/voyplan/internal/observability/metrics"
)

func TestMain(m *testing.M) {
	// Instruments bind to the global no-op meter provider here.
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}
