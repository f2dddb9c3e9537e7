package resolver

import (
	"sync"

	"github.com/modpkg/modpkg/internal/model"
)

// state accumulates the records resolved during one Resolve call.
//
// A mod id is claimed before its metadata is fetched, so concurrent
// branches racing for the same id fetch it exactly once. Claim is the only
// way to add a key; the claimed slot is filled once the lookup returns.
type state struct {
	mu      sync.Mutex
	records map[string]*model.ModRecord
	order   []string
}

func newState() *state {
	return &state{records: make(map[string]*model.ModRecord)}
}

// claim atomically checks for modID and reserves it when absent.
// It reports whether the caller now owns the id.
func (s *state) claim(modID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[modID]; ok {
		return false
	}
	s.records[modID] = nil
	s.order = append(s.order, modID)
	return true
}

// fill stores the fetched record for a previously claimed id.
func (s *state) fill(rec *model.ModRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ModID] = rec
}

// snapshot returns the resolved records in claim order. It must only be
// called once every branch has completed successfully.
func (s *state) snapshot() []*model.ModRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.ModRecord, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.records[id]; rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
