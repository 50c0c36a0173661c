// Package audience decides who may see and interact with owned content. The same rules are
// available per item (Decide, CanRead) and as a store filter (ListFilter) so that list queries
// and single reads agree.
package audience

import (
	"github.com/steemit/circlemind/internal/apperr"
)

// Audience is the visibility level chosen by the content owner.
type Audience string

const (
	Public  Audience = "public"
	Friends Audience = "friends"
	Private Audience = "private"
)

// All lists every audience, widest first.
var All = []Audience{Public, Friends, Private}

// Parse validates s. An empty string selects Public.
func Parse(s string) (Audience, error) {
	switch a := Audience(s); a {
	case "":
		return Public, nil
	case Public, Friends, Private:
		return a, nil
	default:
		return "", apperr.Validation("invalid audience %q", s)
	}
}

// Item is the part of a content item the policy looks at.
type Item struct {
	OwnerID  string
	Audience Audience
	Removed  bool
	// Noun names the item in denial messages ("post", "story"). Defaults to "content".
	Noun string
}

func (it Item) noun() string {
	if it.Noun == "" {
		return "content"
	}
	return it.Noun
}

// Viewer is the acting user together with their friendship to the item owner.
type Viewer struct {
	ID       string
	IsFriend bool
}

// Interaction is an action taken on someone's content.
type Interaction int

const (
	Read Interaction = iota
	Comment
	React
	View
)

func (i Interaction) verb() string {
	switch i {
	case Comment:
		return "comment on"
	case React:
		return "react to"
	default:
		return "see"
	}
}

// Decide applies the decision table for reading it and returns a Forbidden error on denial.
// Rules in order: owner, removed, private, friends, public.
func Decide(v Viewer, it Item) error {
	return decide(v, it, Read)
}

// CanRead reports whether v may read it.
func CanRead(v Viewer, it Item) bool {
	return Decide(v, it) == nil
}

// CanInteract applies the read table for the given interaction. Commenting additionally
// requires the item not to be removed, even for its owner. Block checks are not part of the
// policy and must run before it.
func CanInteract(v Viewer, it Item, kind Interaction) error {
	if kind == Comment && it.Removed {
		return apperr.Forbidden("The %s is removed. You can not comment on it", it.noun())
	}
	return decide(v, it, kind)
}

func decide(v Viewer, it Item, kind Interaction) error {
	noun := it.noun()
	if v.ID != "" && v.ID == it.OwnerID {
		return nil
	}
	if it.Removed {
		return apperr.Forbidden("The %s is removed. You can't %s the %s!", noun, kind.verb(), noun)
	}
	switch it.Audience {
	case Public:
		return nil
	case Friends:
		if v.IsFriend {
			return nil
		}
		return apperr.Forbidden("The %s audience is friends. You can not %s this %s", noun, kind.verb(), noun)
	case Private:
		return apperr.Forbidden("The %s is private. You can't %s the %s!", noun, kind.verb(), noun)
	default:
		return apperr.Forbidden("The %s has an unknown audience", noun)
	}
}

// Visible returns the audiences a viewer can read given their relation to the owner.
func Visible(isOwner, isFriend bool) []Audience {
	switch {
	case isOwner:
		return []Audience{Public, Friends, Private}
	case isFriend:
		return []Audience{Public, Friends}
	default:
		return []Audience{Public}
	}
}
