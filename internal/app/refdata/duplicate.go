package refdata

import "github.com/dalemusser/waffle/pantry/text"

// IsDuplicate reports whether any entry in existing shares a value with
// candidate on any of fields. Values are compared exactly; an empty value on
// either side never matches.
func IsDuplicate[E any](existing []E, candidate E, fields []Field[E]) bool {
	return duplicate(existing, &candidate, fields, func(a, b string) bool { return a == b })
}

// IsDuplicateFold is IsDuplicate with case-insensitive comparison.
func IsDuplicateFold[E any](existing []E, candidate E, fields []Field[E]) bool {
	return duplicate(existing, &candidate, fields, sameFold)
}

func duplicate[E any](existing []E, candidate *E, fields []Field[E], eq func(a, b string) bool) bool {
	for i := range existing {
		for _, f := range fields {
			want := f.Get(candidate)
			have := f.Get(&existing[i])
			if want == "" || have == "" {
				continue
			}
			if eq(have, want) {
				return true
			}
		}
	}
	return false
}

// sameFold compares two values the way every case-insensitive check in this
// package does.
func sameFold(a, b string) bool {
	return text.Fold(a) == text.Fold(b)
}
