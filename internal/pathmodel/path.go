// Package pathmodel provides the absolute/relative path value types that are
// the sole currency passed between the orchestrator's components. Keeping
// path manipulation behind these two types (rather than raw strings) rules
// out a whole class of path-traversal bugs in the artifact tree.
package pathmodel

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Abs is a lexically-normalized absolute path.
type Abs struct {
	p string
}

// Rel is a lexically-normalized relative path. It never begins with ".." or
// is absolute.
type Rel struct {
	p string
}

// NewAbs validates and wraps p as an absolute path.
func NewAbs(p string) (Abs, error) {
	if !filepath.IsAbs(p) {
		return Abs{}, fmt.Errorf("pathmodel: %q is not absolute", p)
	}
	return Abs{p: filepath.Clean(p)}, nil
}

// MustAbs is NewAbs, panicking on error. Intended for constants and tests.
func MustAbs(p string) Abs {
	a, err := NewAbs(p)
	if err != nil {
		panic(err)
	}
	return a
}

// NewRelOrPanic is NewRel, panicking on error. Intended for constants.
func NewRelOrPanic(p string) Rel {
	r, err := NewRel(p)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRel validates and wraps p as a relative path.
func NewRel(p string) (Rel, error) {
	if filepath.IsAbs(p) {
		return Rel{}, fmt.Errorf("pathmodel: %q is absolute, want relative", p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return Rel{}, fmt.Errorf("pathmodel: %q escapes its base", p)
	}
	return Rel{p: clean}, nil
}

// String returns the native string form of a.
func (a Abs) String() string { return a.p }

// String returns the native string form of r.
func (r Rel) String() string { return r.p }

// Parent returns the lexical parent of a. It fails when a is a filesystem
// root (e.g. "/").
func (a Abs) Parent() (Abs, error) {
	parent := filepath.Dir(a.p)
	if parent == a.p {
		return Abs{}, fmt.Errorf("pathmodel: %q has no parent", a.p)
	}
	return Abs{p: parent}, nil
}

// Join joins a with rel, failing if the result would not be a strict lexical
// descendant of a (i.e. would escape, be absolute, or equal a itself).
func (a Abs) Join(rel Rel) (Abs, error) {
	if rel.p == "." || rel.p == "" {
		return Abs{}, fmt.Errorf("pathmodel: join of %q with empty path would equal the base", a.p)
	}
	joined := filepath.Join(a.p, rel.p)
	if joined == a.p {
		return Abs{}, fmt.Errorf("pathmodel: join of %q with %q would equal the base", a.p, rel.p)
	}
	if !isStrictDescendant(a.p, joined) {
		return Abs{}, fmt.Errorf("pathmodel: %q escapes base %q", joined, a.p)
	}
	return Abs{p: joined}, nil
}

// MustJoin is Join, panicking on error.
func (a Abs) MustJoin(rel Rel) Abs {
	j, err := a.Join(rel)
	if err != nil {
		panic(err)
	}
	return j
}

// IsChild reports whether other is a strict lexical descendant of a.
func (a Abs) IsChild(other Abs) bool {
	return isStrictDescendant(a.p, other.p)
}

// RelativeTo returns the unique Rel such that other.Join(result) == a.
func (a Abs) RelativeTo(other Abs) (Rel, error) {
	if !isStrictDescendant(other.p, a.p) {
		return Rel{}, fmt.Errorf("pathmodel: %q is not a descendant of %q", a.p, other.p)
	}
	rel, err := filepath.Rel(other.p, a.p)
	if err != nil {
		return Rel{}, err
	}
	return NewRel(rel)
}

// WithPostfix appends postfix to a's final path component, e.g.
// Abs("/x/y").WithPostfix(".tmp") == Abs("/x/y.tmp"). The result remains a
// sibling of a.
func (a Abs) WithPostfix(postfix string) (Abs, error) {
	if postfix == "" {
		return Abs{}, fmt.Errorf("pathmodel: empty postfix")
	}
	if strings.ContainsRune(postfix, filepath.Separator) {
		return Abs{}, fmt.Errorf("pathmodel: postfix %q contains a path separator", postfix)
	}
	return Abs{p: a.p + postfix}, nil
}

// WithPostfix appends postfix to r's final path component.
func (r Rel) WithPostfix(postfix string) (Rel, error) {
	if postfix == "" {
		return Rel{}, fmt.Errorf("pathmodel: empty postfix")
	}
	return NewRel(r.p + postfix)
}

// Base returns the final path component of a.
func (a Abs) Base() string { return filepath.Base(a.p) }

// Base returns the final path component of r.
func (r Rel) Base() string { return filepath.Base(r.p) }

func isStrictDescendant(base, candidate string) bool {
	if base == candidate {
		return false
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(base, sep) {
		base += sep
	}
	return strings.HasPrefix(candidate, base)
}
