// Request optimization: size adjustments applied before forwarding when
// the model decides a request is worth optimizing.

package bridge

const (
	cacheLineBytes = 64
	pageBytes      = 4096
)

// OptimizeRequest returns a copy of req with type-specific size
// adjustments applied. The input is never mutated.
//
//   - IO reads/writes round the size up to a cache line, with a one-line
//     minimum.
//   - DMA allocations round the size up to a page boundary.
//   - Other types pass through unchanged.
func OptimizeRequest(req Request) Request {
	optimized := req

	switch req.Type {
	case ReqIORead, ReqIOWrite:
		if optimized.Size < cacheLineBytes {
			optimized.Size = cacheLineBytes
		} else {
			optimized.Size = (optimized.Size + cacheLineBytes - 1) &^ (cacheLineBytes - 1)
		}
	case ReqDMAAlloc:
		optimized.Size = (optimized.Size + pageBytes - 1) &^ (pageBytes - 1)
	}
	return optimized
}
