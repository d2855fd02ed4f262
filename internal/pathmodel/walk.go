package pathmodel

import (
	"os"
	"path/filepath"
)

// Predicate is a composable test over a directory entry discovered during a
// Find walk, applied to its absolute path and its depth relative to the walk
// root (root's immediate children are depth 0).
type Predicate func(entry Abs, depth int) bool

// And composes predicates with logical AND.
func And(preds ...Predicate) Predicate {
	return func(entry Abs, depth int) bool {
		for _, p := range preds {
			if !p(entry, depth) {
				return false
			}
		}
		return true
	}
}

// Or composes predicates with logical OR.
func Or(preds ...Predicate) Predicate {
	return func(entry Abs, depth int) bool {
		for _, p := range preds {
			if p(entry, depth) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(entry Abs, depth int) bool { return !p(entry, depth) }
}

// IsDir reports whether a is a directory, following symlinks. Callers use
// it when building include-predicates; Find itself decides descent from the
// directory entry's own type and does not call IsDir.
func IsDir(a Abs) bool {
	fi, err := os.Stat(a.String())
	return err == nil && fi.IsDir()
}

// Find performs a pre-order walk of dir: for every entry e at depth d, if e
// is a directory and descend(e, d) is true the walk recurses into it; if
// include(e, d) is true, e is appended to the result. dir itself is never
// included or passed to either predicate.
func Find(dir Abs, include, descend Predicate) ([]Abs, error) {
	var result []Abs
	var walk func(cur Abs, depth int) error
	walk = func(cur Abs, depth int) error {
		entries, err := os.ReadDir(cur.String())
		if err != nil {
			return err
		}
		for _, e := range entries {
			child := Abs{p: filepath.Join(cur.String(), e.Name())}
			if include(child, depth) {
				result = append(result, child)
			}
			if e.IsDir() && descend(child, depth) {
				if err := walk(child, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(dir, 0); err != nil {
		return nil, err
	}
	return result, nil
}
