package usecase

import (
	"testing"

	"go.uber.org/goleak"
)

// The opencensus view worker is started by an init in the genai client's
// dependency graph and lives for the whole process.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}
