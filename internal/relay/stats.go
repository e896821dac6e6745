package relay

// Stats counts what happened to submitted frames.
type Stats struct {
	Accepted        uint64 // frames copied into the buffer
	DroppedRate     uint64 // frames dropped by the minimum interval
	DroppedShutdown uint64 // frames dropped after Shutdown
	Consumed        uint64 // frames handed to a sink
	Reallocations   uint64 // buffer reallocations caused by size changes
}

// Dropped is the total of all dropped submissions.
func (s Stats) Dropped() uint64 {
	return s.DroppedRate + s.DroppedShutdown
}

// Stats returns a snapshot of the counters.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
