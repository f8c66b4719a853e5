package sync

import (
	"context"
	"time"

	"github.com/robert-malhotra/fmi-stac-sync/pkg/logging"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
)

type fetchFunc func(ctx context.Context, href string) (*stac.Item, error)

// resolveWithRetry fetches every href. Failed hrefs are fetched again in
// further passes until none is left; there is no attempt cap and no backoff,
// only the optional pause between passes. Results keep the order of hrefs.
// The loop ends early only when ctx is cancelled.
func resolveWithRetry(ctx context.Context, hrefs []string, fetch fetchFunc, pause time.Duration) ([]*stac.Item, error) {
	log := logging.FromContext(ctx)

	results := make([]*stac.Item, len(hrefs))
	pending := make([]int, len(hrefs))
	for i := range pending {
		pending[i] = i
	}

	for pass := 1; len(pending) > 0; pass++ {
		if pass > 1 {
			log.Info().Int("pass", pass).Int("pending", len(pending)).Msg("Retrying failed items")
			if err := wait(ctx, pause); err != nil {
				return nil, err
			}
		}

		var failed []int
		for _, i := range pending {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			item, err := fetch(ctx, hrefs[i])
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Warn().Err(err).Str("href", hrefs[i]).Msg("Item fetch failed")
				failed = append(failed, i)
				continue
			}
			if pass > 1 {
				log.Info().Str("href", hrefs[i]).Msg("Item fetched on retry")
			}
			results[i] = item
		}
		pending = failed
	}
	return results, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResolveItems fetches the items behind hrefs with resolveWithRetry. Relative
// asset hrefs are made absolute against the URL each item was read from.
func ResolveItems(ctx context.Context, src Source, hrefs []string, pause time.Duration) ([]*stac.Item, error) {
	return resolveWithRetry(ctx, hrefs, func(ctx context.Context, href string) (*stac.Item, error) {
		item, itemURL, err := src.FetchItem(ctx, href)
		if err != nil {
			return nil, err
		}
		for _, a := range item.Assets {
			if a == nil || a.Href == "" {
				continue
			}
			if a.Href, err = stac.ResolveHref(itemURL, a.Href); err != nil {
				return nil, err
			}
		}
		return item, nil
	}, pause)
}
