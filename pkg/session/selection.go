package session

import "sort"

// Selection is the transient candidate set composed while an invite dialog
// is open. It is owned by a single client workflow, never shared or
// persisted, and has no effect on the project until committed.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips candidate membership. Toggling the same id twice returns
// the selection to its original contents.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Add puts id in the selection unconditionally. Used when the candidate
// list arrives already committed, where a repeated id must not cancel
// itself out the way Toggle would.
func (s *Selection) Add(id string) {
	s.ids[id] = struct{}{}
}

// Has reports whether id is currently selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected candidates.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected candidate ids in stable order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear discards the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}
