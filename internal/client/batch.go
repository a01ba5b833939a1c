package client

import "golang.org/x/sync/errgroup"

// Batch executes requests with at most maxParallel in flight, returning
// responses in request order. All requests share the client's pool, DNS
// cache, and rate limiter. There is no batch-level cancellation; each
// request is bounded by its own timeout.
func (c *Client) Batch(requests []Request, maxParallel int) []Response {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	responses := make([]Response, len(requests))

	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, req := range requests {
		g.Go(func() error {
			responses[i] = c.Do(req)
			return nil
		})
	}
	g.Wait()

	return responses
}
