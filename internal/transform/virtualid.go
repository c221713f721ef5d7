package transform

import (
	"fmt"

	"github.com/m3uflux/m3uflux/internal/idstore"
	"github.com/m3uflux/m3uflux/internal/model"
)

// AssignVirtualIDs computes uuid = hash(url) for every item in g that
// doesn't already have one, then resolves (or allocates) its virtual_id via
// store. This is the final transform stage, run after filtering so only
// surviving channels consume id space.
func AssignVirtualIDs(g *model.Group, store *idstore.Store) error {
	var zero [32]byte
	for _, item := range g.Items {
		if item.UUID == zero {
			item.GenerateUUID()
		}
		vid, err := store.GetOrAssign(item.UUID)
		if err != nil {
			return fmt.Errorf("transform: assign virtual id for %q: %w", item.URL, err)
		}
		item.VirtualID = vid
	}
	return nil
}
