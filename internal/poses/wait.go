package poses

import (
	"fmt"
	"os"
	"time"
)

// WaitReady blocks until the lock file guarding the pose file is gone.
// The SLAM front-end creates the lock while rewriting the graph
// export; polling with backoff replaces the busy loop the batch job
// would otherwise burn a core on.
func WaitReady(lockPath string, timeout time.Duration) error {
	const (
		initialDelay = 50 * time.Millisecond
		maxDelay     = 2 * time.Second
	)

	deadline := time.Now().Add(timeout)
	delay := initialDelay
	for {
		if _, err := os.Stat(lockPath); os.IsNotExist(err) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pose file still locked after %s: %s", timeout, lockPath)
		}
		time.Sleep(delay)
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}
