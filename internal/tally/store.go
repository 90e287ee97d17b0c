package tally

import (
	"panen/internal/core"
)

type accountKey struct {
	group    string
	identity string
}

// Account is the running aggregate for one (group, identity) pair
// within the current period: a total and the ordered entry log.
// Invariant: Total == sum of Log quantities.
type Account struct {
	Total int64
	Log   []core.Entry
}

// store holds every live account, their first-seen order and the
// process-wide grand total. It carries no lock of its own: the owning
// Service serializes all access together with the period key, so that
// rollover clears everything as one unit.
type store struct {
	accounts map[accountKey]*Account
	order    []accountKey
	grand    int64
}

func newStore() *store {
	return &store{accounts: make(map[accountKey]*Account)}
}

// getOrCreate returns the account for the pair, creating it lazily and
// recording its position in the iteration order.
func (s *store) getOrCreate(group, identity string) *Account {
	key := accountKey{group: group, identity: identity}
	acc, ok := s.accounts[key]
	if !ok {
		acc = &Account{}
		s.accounts[key] = acc
		s.order = append(s.order, key)
	}
	return acc
}

// append applies one entry: log, account total and grand total move
// together. Callers hold the service lock.
func (s *store) append(acc *Account, e core.Entry) {
	acc.Log = append(acc.Log, e)
	acc.Total += e.Quantity
	s.grand += e.Quantity
}

func (s *store) grandTotal() int64 {
	return s.grand
}

// snapshot copies every entry in scope, account-insertion order first,
// log order within an account. With filter=true only accounts of the
// given group are included.
func (s *store) snapshot(filter bool, group string) []core.Entry {
	var out []core.Entry
	for _, key := range s.order {
		if filter && key.group != group {
			continue
		}
		out = append(out, s.accounts[key].Log...)
	}
	return out
}

// clear drops every account and the grand total. Only the period
// rollover calls this.
func (s *store) clear() {
	s.accounts = make(map[accountKey]*Account)
	s.order = nil
	s.grand = 0
}
