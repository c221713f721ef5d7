package transform

import (
	"fmt"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/idstore"
	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/xtreamstore"
)

// Run executes the four pipeline stages in order (rename, sort, filter,
// virtual-id assignment) against playlist.Groups, then dispatches to
// target's output sink. store is the target's persistent virtual-id table.
func Run(playlist *model.FetchedPlaylist, target config.Target, store *idstore.Store, filterExpr Expr, workingDir string) error {
	for _, g := range playlist.Groups {
		if err := RenameGroup(g, target.Rename); err != nil {
			return fmt.Errorf("transform: rename group %q: %w", g.Title, err)
		}
	}

	SortGroups(playlist.Groups, target.Sort)

	for _, g := range playlist.Groups {
		if err := RenameItems(g, target.Rename); err != nil {
			return fmt.Errorf("transform: rename items in group %q: %w", g.Title, err)
		}
		Apply(g, filterExpr)
		if err := AssignVirtualIDs(g, store); err != nil {
			return fmt.Errorf("transform: assign virtual ids in group %q: %w", g.Title, err)
		}
	}

	switch target.Output {
	case config.OutputM3u:
		return WriteM3u(playlist.Groups, target, workingDir)
	case config.OutputStrm:
		return WriteStrm(playlist.Groups, target, workingDir)
	case config.OutputXtream:
		return xtreamstore.Write(playlist.Groups, target, workingDir)
	default:
		return fmt.Errorf("transform: unknown target output kind %q", target.Output)
	}
}
