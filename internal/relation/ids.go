package relation

import (
	"github.com/steemit/circlemind/internal/cache"
)

// Cached sets live under a per-actor generation. Invalidate moves the actor to a new generation,
// so a set loaded before the mutation and written after it lands under a key nobody reads.
const (
	setExcluded = "excluded"
	setFriends  = "friends"

	initialGeneration = "0"
)

var errMiss = cache.ErrMiss

func generationKey(actor string) string { return "relation:gen:" + actor }

func setKey(set, actor, generation string) string {
	return "relation:" + set + ":" + actor + ":" + generation
}

// idSet keeps first-seen order while dropping duplicates.
type idSet struct {
	seen  map[string]struct{}
	order []string
}

func newIDSet(capacity int) *idSet {
	return &idSet{seen: make(map[string]struct{}, capacity), order: make([]string, 0, capacity)}
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *idSet) list() []string {
	return s.order
}
