// Package fetch provides the shared state of a check run: a single-flight
// bundle [Cache] and a per-source [Scheduler].
//
// The check runner composes them as cache-outside, scheduler-inside:
//
//	b, err := cache.GetOrFetch(ctx, key, func(ctx context.Context) (source.Bundle, error) {
//	    return sched.Do(ctx, key.Kind, key.ID, adapterCall)
//	})
//
// so each key is scheduled (and retried) at most once at a time no matter
// how many packages need it. Both types are created per run and discarded
// with it; nothing is persisted.
package fetch
