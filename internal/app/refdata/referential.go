package refdata

import (
	"fmt"

	"github.com/dalemusser/refhub/internal/domain/models"
)

// Parent is the view of a parent entry that referential checks need.
type Parent struct {
	Code    string
	Name    string
	Deleted bool
}

// ParentRef declares that entries of a kind reference a parent kind by code
// and carry a denormalized copy of the parent's name.
type ParentRef[E any] struct {
	// Label names the parent kind in failure messages.
	Label string
	// Collection is the parent's sub-collection key.
	Collection string
	// CodeKey and NameKey are the parent entry keys holding code and name.
	CodeKey string
	NameKey string

	// Code and Name are the child's reference fields.
	Code Field[E]
	Name Field[E]
}

// parents reads the parent sub-collection. Entries without a code are
// skipped, which also skips entries of other kinds sharing the collection.
func (r *ParentRef[E]) parents(org models.Organization) ([]Parent, error) {
	raw, err := org.Entries(r.Collection)
	if err != nil {
		return nil, err
	}
	out := make([]Parent, 0, len(raw))
	for _, m := range raw {
		code, _ := m[r.CodeKey].(string)
		if code == "" {
			continue
		}
		name, _ := m[r.NameKey].(string)
		deleted, _ := m["isDeleted"].(bool)
		out = append(out, Parent{Code: code, Name: name, Deleted: deleted})
	}
	return out, nil
}

// ValidateParent checks that a live parent with the given code exists and
// that its name matches, both case-insensitively. On failure it returns the
// message to report; label names the parent kind ("Country").
func ValidateParent(label string, parents []Parent, code, name string) (bool, string) {
	for _, p := range parents {
		if p.Deleted || !sameFold(p.Code, code) {
			continue
		}
		if !sameFold(p.Name, name) {
			return false, fmt.Sprintf("%s name %q does not match the registered name %q for code %q", label, name, p.Name, code)
		}
		return true, ""
	}
	return false, fmt.Sprintf("%s with code %q not found in the system", label, code)
}
