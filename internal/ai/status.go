package ai

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the availability snapshot of one provider.
type Status struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
	LatencyMs  int64  `json:"latency_ms"`
}

// CheckAll probes every provider concurrently and keeps the input order.
func CheckAll(ctx context.Context, providers []Provider, timeout time.Duration) []Status {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	out := make([]Status, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		out[i] = Status{Provider: p.Name(), Configured: p.Enabled()}
		if !p.Enabled() {
			continue
		}
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			start := time.Now()
			out[i].Available = p.Available(probeCtx)
			out[i].LatencyMs = time.Since(start).Milliseconds()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
