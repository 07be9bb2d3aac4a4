package threadcore

import (
	"time"

	"github.com/llxisdsh/threadcore/internal/opt"
)

// Sleep suspends the calling thread for at least d. An early wake caused by
// signal or APC delivery is absorbed by sleeping again for the remainder.
func Sleep(d time.Duration) error {
	return opt.Sleep(d)
}
