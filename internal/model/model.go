// Package model holds the canonical in-memory playlist data: ItemHeader,
// Item, Group and FetchedPlaylist, plus the FieldAccessor reflective-field
// contract the transform pipeline evaluates rename rules and filters
// against. Grounded on original_source/src/model/playlist.rs, adapted from
// Rust's Rc<RefCell<...>> shared-mutability shape to ownership-by-Group:
// an Item is created once by a parser and thereafter mutated group by group
// by the pipeline stages (transform.RenameItems, transform.AssignVirtualIDs,
// epg.ApplyDeterministicMatches) through Item.SetField and direct field
// writes.
package model

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/m3uflux/m3uflux/internal/hashutil"
)

// ItemHeader is the normalized metadata of one catalog entry.
type ItemHeader struct {
	UUID        [32]byte
	ID          string // provider id, opaque string as delivered by source
	VirtualID   uint32
	Name        string
	Chno        string
	Logo        string
	LogoSmall   string
	Group       string
	Title       string
	ParentCode  string
	AudioTrack  string
	TimeShift   string
	Rec         string
	URL         string
	EPGChannelID string // empty means unset

	Cluster              Cluster
	ItemType             ItemType
	AdditionalProperties json.RawMessage // optional semi-structured metadata
	CategoryID           uint32
	InputID              uint16
	SeriesFetched        bool
}

// Item is an ItemHeader as held inside a Group. Mutation after group
// assembly (rename, uuid/virtual-id assignment, provider-id back-patch) is
// expected and is done by the pipeline stages that walk each Group's Items.
type Item struct {
	ItemHeader
}

// GenerateUUID recomputes UUID from the item's current URL. Per the uuid
// invariant, this is stable for a given URL independent of when it's called
// relative to other field mutations.
func (it *Item) GenerateUUID() {
	it.UUID = hashutil.HashString(it.URL)
}

var trailingNumericID = regexp.MustCompile(`(\d+)(?:\.[A-Za-z0-9]+)?$`)

// ProviderID resolves the item's provider id. It first tries ItemHeader.ID as
// a uint32; failing that, it applies a URL-shaped heuristic that extracts a
// numeric trailing path component. If that succeeds, the numeric string is
// persisted back into ItemHeader.ID (the canonical string form) before being
// returned. If neither succeeds, ok is false.
func (it *Item) ProviderID() (id uint32, ok bool) {
	if v, err := strconv.ParseUint(it.ID, 10, 32); err == nil {
		return uint32(v), true
	}
	m := trailingNumericID.FindStringSubmatch(it.URL)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	it.ID = m[1] // back-patch so future lookups are O(1) and consistent
	return uint32(v), true
}

// Group is an ordered sequence of Items sharing a title/cluster. Insertion
// order within a group is preserved; groups themselves are an ordered
// sequence inside a FetchedPlaylist.
type Group struct {
	ID      uint32
	Title   string
	Cluster Cluster
	Items   []*Item
}

// FetchedPlaylist is the transient binding produced by a single provider
// fetch: the input it came from, its groups, and an optional EPG guide
// reference carried alongside (consumed by internal/epg).
type FetchedPlaylist struct {
	InputRef string
	Groups   []*Group
	EPGPath  string // optional; empty means no TV guide attached to this fetch
}
