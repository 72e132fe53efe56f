package dao

import "context"

// live runs query once immediately and again after every change signal,
// sending each result on the returned channel. Results with ok == false are
// skipped. Change signals that arrive while a result is pending are
// coalesced, so a slow reader skips intermediate states but always ends up
// with the latest one. The channel closes when ctx is done.
func live[T any](ctx context.Context, d *SQLite, name string, query func(context.Context) (T, bool, error)) <-chan T {
	out := make(chan T)

	wake := make(chan struct{}, 1)
	wake <- struct{}{}

	// Register before the first query so no write can slip between them
	remove := d.AddListener(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})

	go func() {
		defer close(out)
		defer remove()

		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}

			v, ok, err := query(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				d.logger.Warn("live query failed", "query", name, "error", err)
				continue
			}
			if !ok {
				continue
			}

			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
