package rates

import (
	"fmt"
	"sync/atomic"
)

// Store holds the live rate table. Calculations snapshot the table once at
// entry, so a Swap mid-flight never mixes two tables inside one quote.
type Store struct {
	table atomic.Pointer[Table]
}

func NewStore(t Table) (*Store, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("cannot create store: %w", err)
	}
	s := &Store{}
	s.table.Store(&t)
	return s, nil
}

// Get returns the current table snapshot.
func (s *Store) Get() Table {
	return *s.table.Load()
}

// Swap atomically replaces the live table. Invalid tables are rejected and
// the previous table stays live.
func (s *Store) Swap(t Table) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("rejected rate table swap: %w", err)
	}
	s.table.Store(&t)
	return nil
}
