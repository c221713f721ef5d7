package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// M3uItem is the on-disk projection used for M3U output: narrower than
// ItemHeader, it omits Cluster, CategoryID and AdditionalProperties.
type M3uItem struct {
	ID           string
	Name         string
	Chno         string
	Logo         string
	LogoSmall    string
	Group        string
	Title        string
	ParentCode   string
	AudioTrack   string
	TimeShift    string
	Rec          string
	URL          string
	EPGChannelID string
	ItemType     ItemType
}

// ToM3uItem copies string fields and ItemType; cluster/category/props are
// dropped, matching the M3U target's narrower projection.
func (it *Item) ToM3uItem() M3uItem {
	return M3uItem{
		ID:           it.ID,
		Name:         it.Name,
		Chno:         it.Chno,
		Logo:         it.Logo,
		LogoSmall:    it.LogoSmall,
		Group:        it.Group,
		Title:        it.Title,
		ParentCode:   it.ParentCode,
		AudioTrack:   it.AudioTrack,
		TimeShift:    it.TimeShift,
		Rec:          it.Rec,
		URL:          it.URL,
		EPGChannelID: it.EPGChannelID,
		ItemType:     it.ItemType,
	}
}

// XtreamItem is the on-disk projection used for the Xtream document store:
// it parses provider id to a numeric form and serializes additional
// properties as a compact textual (JSON) encoding.
type XtreamItem struct {
	ProviderID           uint32
	Name                 string
	Chno                 string
	Logo                 string
	LogoSmall            string
	Group                string
	Title                string
	EPGChannelID         string
	Cluster              Cluster
	CategoryID           uint32
	SeriesFetched        bool
	AdditionalProperties string // compact JSON, empty if absent
}

// ToXtreamItem additionally parses provider id to u32 (defaulting to 0 on
// failure), serializes AdditionalProperties as compact JSON text, and
// carries Cluster/CategoryID/SeriesFetched.
func (it *Item) ToXtreamItem() XtreamItem {
	providerID, err := strconv.ParseUint(it.ID, 10, 32)
	if err != nil {
		providerID = 0
	}

	var propsText string
	if len(it.AdditionalProperties) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, it.AdditionalProperties); err == nil {
			propsText = compact.String()
		}
	}

	return XtreamItem{
		ProviderID:           uint32(providerID),
		Name:                 it.Name,
		Chno:                 it.Chno,
		Logo:                 it.Logo,
		LogoSmall:            it.LogoSmall,
		Group:                it.Group,
		Title:                it.Title,
		EPGChannelID:         it.EPGChannelID,
		Cluster:              it.Cluster,
		CategoryID:           it.CategoryID,
		SeriesFetched:        it.SeriesFetched,
		AdditionalProperties: propsText,
	}
}
