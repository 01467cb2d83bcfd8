package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck fails when the process exceeds the given goroutine
// count, which usually indicates a leak.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return fmt.Errorf("%d goroutines running, threshold is %d", count, threshold)
		}
		return nil
	}
}
