package monitor

// gate orders fetches per resource so responses apply last-write-wins.
// Every fetch takes a sequence number at initiation; a response may
// only be applied if no later-initiated response landed first. Callers
// hold their view mutex around both methods.
type gate struct {
	next    uint64
	applied uint64
}

// begin allocates the sequence number for a fetch about to start.
func (g *gate) begin() uint64 {
	g.next++
	return g.next
}

// tryApply reports whether a response with the given sequence number is
// still current, marking it applied when it is. Stale responses (a
// newer one already applied) are rejected.
func (g *gate) tryApply(seq uint64) bool {
	if seq <= g.applied {
		return false
	}
	g.applied = seq
	return true
}
