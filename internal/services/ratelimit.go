package services

import (
	"context"
	"fmt"
	"time"
)

const rateWaitTimeout = 30 * time.Second

func newRateBucket(concurrentReqs int) chan struct{} {
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}
	return rateChan
}

// acquireRate blocks until a rate slot is available
func acquireRate(ctx context.Context, rateChan chan struct{}) error {
	select {
	case <-rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(rateWaitTimeout):
		return fmt.Errorf("timeout waiting for LLM rate slot")
	}
}

func releaseRate(rateChan chan struct{}) {
	rateChan <- struct{}{}
}
