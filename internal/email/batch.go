package email

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"leadscout-engine/internal/domain"
)

// DiscoverBatch enriches businesses lacking an email with bounded
// parallelism. onDone runs after every completion (found or not) so callers
// can report partial results; it is called from worker goroutines and must
// be safe for concurrent use. The input slice is mutated in place.
func (d *Discoverer) DiscoverBatch(ctx context.Context, businesses []domain.Business, concurrency int, onDone func(i int, b domain.Business)) {
	if concurrency <= 0 {
		concurrency = 5
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range businesses {
		if businesses[i].HasEmail() {
			businesses[i].EmailConfidence = Normalize(businesses[i].EmailConfidence)
			if onDone != nil {
				onDone(i, businesses[i])
			}
			continue
		}

		g.Go(func() error {
			res, err := d.Discover(gctx, businesses[i])
			if err != nil {
				log.Printf("[email] discover err business=%q err=%v", businesses[i].Name, err)
			}
			if res.Email != "" {
				businesses[i].Email = res.Email
				businesses[i].EmailSource = res.Source
				businesses[i].EmailConfidence = Normalize(res.Confidence)
			}
			if onDone != nil {
				onDone(i, businesses[i])
			}
			return nil
		})
	}
	_ = g.Wait()
}
