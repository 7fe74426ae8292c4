package scheduler

import "fmt"

func errQueueFull(sessionKey string) error {
	return fmt.Errorf("scheduler: queue full for session %q", sessionKey)
}

func errCanceled(sessionKey string) error {
	return fmt.Errorf("scheduler: run canceled for session %q", sessionKey)
}
