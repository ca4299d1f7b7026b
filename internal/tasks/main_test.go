package tasks

import (
	"testing"

	"go.uber.org/goleak"
)

// The genai client pulls in opencensus, whose stats worker starts in an init func and never stops.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
