// Package pagination turns Falcon's paged and per-item list endpoints into
// complete, correctly ordered local collections.
//
// Four algorithms share one contract: drive a supplied fetch function across
// a remote namespace and flatten the results.
//
//   - AllPagesNumberedOffset walks an (offset, limit) namespace sequentially
//     until the server-reported total is reached.
//   - AllPagesNumberedOffsetParallel probes the first page for the total,
//     then fetches the remaining pages on a bounded worker pool and
//     reassembles them in offset order.
//   - AllPagesTokenOffset follows an opaque cursor, in either the "offset"
//     or "after" wire dialect; sequential by protocol necessity.
//   - ParallelListExecution fans a single-valued call out across an
//     arbitrary value list, preserving input order in the output.
//
// Example usage:
//
//	fetch := func(ctx context.Context, offset, limit int) (*pagination.Envelope[string], error) {
//		resp, err := client.Get(ctx, "/iocs/queries/indicators/v1", query(offset, limit))
//		if err != nil {
//			return nil, err
//		}
//		return falcon.ToEnvelope[string](resp)
//	}
//	ids, err := pagination.AllPagesNumberedOffsetParallel(ctx, fetch, pagination.DefaultConfig())
//
// The engine owns ordering, concurrency bounds and failure aggregation.
// It does not retry, cache or deduplicate: transport failures propagate
// from the fetch function unchanged, and uniqueness is the API's problem.
// Parallel operations never fail fast; every in-flight task settles before
// one error is returned with the union of all collected failures.
package pagination
