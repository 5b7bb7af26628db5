package persona

import (
	"context"
	"sync"
)

// recordingGenerator returns canned responses in order and keeps every
// request it was given.
type recordingGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []GenerateRequest
}

func (g *recordingGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := len(g.requests)
	g.requests = append(g.requests, req)

	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	if len(g.responses) > 0 {
		return g.responses[len(g.responses)-1], nil
	}
	return "", nil
}

func (g *recordingGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
