package transform

import (
	"regexp"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/model"
)

// itemFields lists which FieldAccessor names an item-scoped rename rule may
// target; group-scoped rules only ever see "group" (the group title).
var itemFields = map[string]bool{"group": true, "name": true, "title": true, "url": true}

// RenameGroup applies group-scoped rename rules to g.Title. Only the "group"
// field is meaningful at this scope.
func RenameGroup(g *model.Group, rules []config.RenameRule) error {
	for _, r := range rules {
		if r.Field != "group" {
			continue
		}
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return err
		}
		g.Title = re.ReplaceAllString(g.Title, r.NewName)
	}
	return nil
}

// RenameItems applies item-scoped rename rules to every item in g. Rules may
// target group, name, title, or url; writing to url is a no-op (enforced by
// Item.SetField).
func RenameItems(g *model.Group, rules []config.RenameRule) error {
	compiled := make([]struct {
		field string
		re    *regexp.Regexp
		repl  string
	}, 0, len(rules))
	for _, r := range rules {
		if !itemFields[r.Field] {
			continue
		}
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return err
		}
		compiled = append(compiled, struct {
			field string
			re    *regexp.Regexp
			repl  string
		}{r.Field, re, r.NewName})
	}
	for _, item := range g.Items {
		for _, c := range compiled {
			v, ok := item.GetField(c.field)
			if !ok {
				continue
			}
			item.SetField(c.field, c.re.ReplaceAllString(v, c.repl))
		}
	}
	return nil
}
