// Package guard flips the binaries into test mode when imported by a test, so
// a main package under test never dials Postgres, Redis or Gotenberg.
package guard

import (
	"os"
	"sync"

	"github.com/om-jewellers/stockledger/internal/app"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STOCKLEDGER_TEST_MODE") == "" {
			_ = os.Setenv("STOCKLEDGER_TEST_MODE", "1")
		}
		app.RefreshTestMode()
	})
}
