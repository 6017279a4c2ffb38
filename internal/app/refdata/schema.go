package refdata

import (
	"strings"

	"github.com/dalemusser/refhub/internal/domain/models"
)

// Field is one named string field of an entry type. The engine reaches entry
// fields only through these accessors.
type Field[E any] struct {
	Name string
	Get  func(*E) string
	Set  func(*E, string)

	// Changed is the failure message used when an edit tries to change an
	// identifying field.
	Changed string
}

// DeleteGuard selects how a delete request that carries entry fields is
// treated.
type DeleteGuard int

const (
	// GuardPresent rejects a delete whose payload carries any identifying or
	// descriptive field.
	GuardPresent DeleteGuard = iota
	// GuardChanged rejects a delete only when a carried field differs from
	// the stored value.
	GuardChanged
)

// Messages holds the per-kind wording of validation and business failures.
type Messages struct {
	Required        string
	EditMissingID   string
	EditRequired    string
	DeleteMissingID string
	NotFound        string
	NoChange        string
	EditDeleted     string
	AlreadyDeleted  string
	DeleteGuard     string
	Deleted         string
	NameTaken       string
}

// Schema describes one entity kind to the generic engine.
type Schema[E any] struct {
	// Kind is a short machine label used in logs, metrics and audit events.
	Kind string
	// Collection is the sub-collection key on the organization document.
	Collection string

	Meta func(*E) *models.Meta

	// Owns reports whether a decoded entry belongs to this kind. It is needed
	// when kinds share a sub-collection; nil means every entry is owned.
	Owns func(*E) bool

	// Identifying fields are fixed at creation.
	Identifying []Field[E]
	// Mutable fields may be changed by edit.
	Mutable []Field[E]
	// EditAny lists the fields of which an edit must carry at least one.
	EditAny []Field[E]

	// DuplicateOn lists the fields compared on create, any one matching
	// counts as a duplicate. Scope narrows which existing entries are
	// compared; nil compares against all of them.
	DuplicateOn  []Field[E]
	Scope        func(candidate, existing *E) bool
	DuplicateMsg func(candidate *E) string

	// Recheck lists mutable fields that must stay unique among the other
	// entries when an edit changes them.
	Recheck []Field[E]

	Parent *ParentRef[E]

	Guard    DeleteGuard
	Messages Messages
}

// fields returns identifying then mutable fields without repeats.
func (s *Schema[E]) fields() []Field[E] {
	out := make([]Field[E], 0, len(s.Identifying)+len(s.Mutable))
	seen := make(map[string]bool, cap(out))
	for _, group := range [][]Field[E]{s.Identifying, s.Mutable} {
		for _, f := range group {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			out = append(out, f)
		}
	}
	return out
}

func (s *Schema[E]) owns(e *E) bool {
	return s.Owns == nil || s.Owns(e)
}

func (s *Schema[E]) trim(e *E) {
	for _, f := range s.fields() {
		f.Set(e, strings.TrimSpace(f.Get(e)))
	}
}

func anySet[E any](e *E, fields []Field[E]) bool {
	for _, f := range fields {
		if f.Get(e) != "" {
			return true
		}
	}
	return false
}
