package engine

import "github.com/reoring/yamlbind/event"

// Store records anchor definitions as replayable, already-materialised
// event subsequences. Names resolve against definitions earlier in stream
// order only, which makes alias cycles impossible. Re-binding a name is
// allowed; later aliases see the most recent definition.
type Store struct {
	byName map[string]event.AnchorID
	bufs   map[event.AnchorID][]event.Event
	defs   map[event.AnchorID]event.Span
	next   event.AnchorID
}

func NewStore() *Store {
	return &Store{
		byName: make(map[string]event.AnchorID),
		bufs:   make(map[event.AnchorID][]event.Event),
		defs:   make(map[event.AnchorID]event.Span),
	}
}

// Register assigns the next AnchorID to name at its definition site.
func (s *Store) Register(name string, def event.Span) event.AnchorID {
	s.next++
	id := s.next
	s.byName[name] = id
	s.defs[id] = def
	return id
}

// Resolve looks a name up in declaration order; forward references miss.
func (s *Store) Resolve(name string) (event.AnchorID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// SetBuffer installs the recorded subtree for id.
func (s *Store) SetBuffer(id event.AnchorID, evs []event.Event) {
	s.bufs[id] = evs
}

// Buffer returns the replay buffer recorded for id.
func (s *Store) Buffer(id event.AnchorID) []event.Event {
	return s.bufs[id]
}

// DefSpan returns the span of the definition site for id.
func (s *Store) DefSpan(id event.AnchorID) event.Span {
	return s.defs[id]
}
