// Filter predicates evaluate a small boolean expression tree against a
// model.FieldAccessor: And/Or/Not combinators over leaf Match{Field, Regexp}
// terms. This grammar isn't named by any retrieved source (the original's
// filter::ValueProvider wasn't retrieved into the pack); it's the direct
// shape spec.md implies by naming "a provider exposing the item's fields"
// (see DESIGN.md Open Question decisions).
package transform

import (
	"fmt"
	"regexp"

	"github.com/m3uflux/m3uflux/internal/model"
)

// Expr is a filter predicate node. Evaluate reports whether item passes.
type Expr interface {
	Evaluate(item model.FieldAccessor) bool
}

// Match is a leaf predicate: true when Field's current value matches Regexp.
// A field the accessor doesn't recognize never matches.
type Match struct {
	Field  string
	Regexp *regexp.Regexp
}

func NewMatch(field, pattern string) (*Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("transform: invalid filter pattern for field %q: %w", field, err)
	}
	return &Match{Field: field, Regexp: re}, nil
}

func (m *Match) Evaluate(item model.FieldAccessor) bool {
	v, ok := item.GetField(m.Field)
	if !ok {
		return false
	}
	return m.Regexp.MatchString(v)
}

// And is true when every child is true; an empty And is vacuously true.
type And []Expr

func (a And) Evaluate(item model.FieldAccessor) bool {
	for _, e := range a {
		if !e.Evaluate(item) {
			return false
		}
	}
	return true
}

// Or is true when any child is true; an empty Or is vacuously false.
type Or []Expr

func (o Or) Evaluate(item model.FieldAccessor) bool {
	for _, e := range o {
		if e.Evaluate(item) {
			return true
		}
	}
	return false
}

// Not negates its single child.
type Not struct{ Expr Expr }

func (n Not) Evaluate(item model.FieldAccessor) bool {
	return !n.Expr.Evaluate(item)
}

// Apply filters g.Items in place, keeping only items for which expr
// evaluates true (or all items, if expr is nil).
func Apply(g *model.Group, expr Expr) {
	if expr == nil {
		return
	}
	kept := g.Items[:0]
	for _, item := range g.Items {
		if expr.Evaluate(item) {
			kept = append(kept, item)
		}
	}
	g.Items = kept
}
