package transform

import (
	"sort"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/model"
)

// SortGroups orders groups by title (strict total order by Unicode code
// point) per spec, ascending or descending. A nil spec leaves order
// untouched.
func SortGroups(groups []*model.Group, spec *config.SortSpec) {
	if spec == nil {
		return
	}
	asc := spec.Order != config.SortDesc
	sort.SliceStable(groups, func(i, j int) bool {
		if asc {
			return groups[i].Title < groups[j].Title
		}
		return groups[i].Title > groups[j].Title
	})
}
