package analysis

import "sync"

type recordKey struct {
	kind  Kind
	sheet string
}

// Store accumulates records keyed by (kind, sheet). A key keeps the position
// of its first reservation or write; later writes replace the record in place.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	order []recordKey
	slots map[recordKey]struct{}
	recs  map[recordKey]Record
}

func NewStore() *Store {
	return &Store{slots: make(map[recordKey]struct{}), recs: make(map[recordKey]Record)}
}

func (s *Store) slot(k recordKey) {
	if _, ok := s.slots[k]; !ok {
		s.slots[k] = struct{}{}
		s.order = append(s.order, k)
	}
}

// Reserve fixes the position of (kind, sheet) for each kind before any record
// is written, so concurrent writers cannot reorder the output. Reserved keys
// that are never written do not appear in Records.
func (s *Store) Reserve(sheet string, kinds ...Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		s.slot(recordKey{kind: k, sheet: sheet})
	}
}

// Put writes rec, replacing any previous record for the same kind and sheet.
func (s *Store) Put(rec Record) {
	k := recordKey{kind: rec.Kind, sheet: rec.Sheet}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slot(k)
	s.recs[k] = rec
}

func (s *Store) Get(kind Kind, sheet string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recs[recordKey{kind: kind, sheet: sheet}]
	return r, ok
}

// Records returns a snapshot in insertion order.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.recs))
	for _, k := range s.order {
		if r, ok := s.recs[k]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ByKind returns the records of one kind in insertion order.
func (s *Store) ByKind(kind Kind) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, k := range s.order {
		if r, ok := s.recs[k]; ok && k.kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

// Reset drops every record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.slots = make(map[recordKey]struct{})
	s.recs = make(map[recordKey]Record)
}
