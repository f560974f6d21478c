package stmregion

import "github.com/hupe1980/stmregion/internal/audit"

// Ledger records which owner holds every page: a region chain, a page pool,
// or the OS. Roots consult it only with debug checks enabled.
//
// A Ledger is safe for concurrent use. Roots that exchange regions must
// share one, because a page allocated through one root may be pooled or
// freed by another. Debug-checked roots without WithLedger share a
// process-wide ledger; give a group of roots their own to audit it in
// isolation.
type Ledger struct {
	l *audit.Ledger
}

// LedgerCounts is a snapshot of pages per owner.
type LedgerCounts = audit.Counts

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{l: audit.New()}
}

// Counts returns how many pages each owner holds.
func (l *Ledger) Counts() LedgerCounts {
	return l.l.Counts()
}
