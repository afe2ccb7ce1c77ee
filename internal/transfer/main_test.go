package transfer

import (
	"os"
	"testing"

	"github.com/betagouv/grist-core/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	code := m.Run()
	tester.Cleanup()

	os.Exit(code)
}
