package stmregion

// DrainOne removes one entry from the expired-descriptor queue and drops
// its descriptor reference. If that was the last reference, the region is
// recycled on this root. It reports false when the queue is empty.
//
// Several roots may drain references to the same region concurrently; the
// counter decrement elects exactly one of them to recycle.
func (r *Root) DrainOne() bool {
	const op = "drain"

	if r.queue == nil {
		r.fatal(invariantf(op, 0, nil, "root has no expired-descriptor queue"))
	}

	reg, ok := r.queue.Pop()
	if !ok {
		return false
	}
	if reg == nil {
		r.fatal(invariantf(op, 0, nil, "nil descriptor in a non-empty queue"))
	}

	prior := reg.release()
	if prior <= 0 {
		r.fatal(invariantf(op, reg.id, nil, "descriptor count underflow: %d before release", prior))
	}

	recycled := prior == 1
	if recycled {
		r.recycle(reg)
	}

	r.stats.drained++
	r.metrics.RecordDrain(recycled)
	if r.opts.trace {
		r.log.LogDrain(reg.id, prior-1, recycled)
	}
	return true
}

// Drain runs DrainOne until the queue is empty and returns the number of
// entries drained.
func (r *Root) Drain() int {
	n := 0
	for r.DrainOne() {
		n++
	}
	return n
}

// QueueLen returns the number of pending expired descriptors.
func (r *Root) QueueLen() int { return r.queue.Len() }
