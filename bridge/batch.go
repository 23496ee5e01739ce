// Batch grouping: partitions a drained batch into groups that can be
// forwarded together.

package bridge

// batchKey identifies a forwarding group.
type batchKey struct {
	typ    RequestType
	device uint32
}

// GroupRequests assigns a group ID to each request, grouping by
// (type, device) identity. Group IDs are dense and issued in first-seen
// order, so the mapping is deterministic for a given input order.
// Returns the per-request group IDs and the number of distinct groups.
func GroupRequests(requests []Request) (groups []uint32, numGroups uint32) {
	groups = make([]uint32, len(requests))
	seen := make(map[batchKey]uint32, len(requests))

	for i := range requests {
		key := batchKey{typ: requests[i].Type, device: requests[i].DeviceID}
		id, ok := seen[key]
		if !ok {
			id = numGroups
			seen[key] = id
			numGroups++
		}
		groups[i] = id
	}
	return groups, numGroups
}
