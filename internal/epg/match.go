// Deterministic EPG channel linking: given a parsed XMLTV channel list,
// resolve each live catalog item's epg_channel_id when the provider's M3U
// didn't supply a usable tvg-id. Adapted from the teacher's
// internal/epglink/epglink.go (catalog.LiveChannel -> model.Item/Group) per
// SPEC_FULL.md §10: the original Rust source only time-shifts an
// already-resolved EPG file and never explains how epg_channel_id gets set.
package epg

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/m3uflux/m3uflux/internal/model"
)

type XMLTVChannel struct {
	ID           string
	DisplayNames []string
}

// AliasOverrides maps a normalized provider channel name to an XMLTV
// channel id, for cases the deterministic name match can't disambiguate.
type AliasOverrides struct {
	NameToXMLTVID map[string]string
}

type MatchMethod string

const (
	MatchTVGIDExact          MatchMethod = "tvg_id_exact"
	MatchAliasExact          MatchMethod = "alias_exact"
	MatchNormalizedNameExact MatchMethod = "name_exact"
)

// ChannelMatch is one live item's resolution outcome.
type ChannelMatch struct {
	Group         string
	Title         string
	ProviderTVGID string
	Matched       bool
	MatchedXMLTV  string
	Method        MatchMethod
	Normalized    string
	Reason        string

	item *model.Item
}

type Report struct {
	TotalChannels int
	Matched       int
	Unmatched     int
	Methods       map[string]int
	Rows          []ChannelMatch
}

type ApplyResult struct {
	Applied       int
	AlreadyLinked int
	Methods       map[string]int
}

// NormalizeName performs conservative normalization for deterministic
// matching: strips punctuation/spacing noise, drops common quality/region
// tokens, lowercases.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	toks := strings.Fields(b.String())
	if len(toks) == 0 {
		return ""
	}
	noise := map[string]struct{}{
		"hd": {}, "uhd": {}, "fhd": {}, "sd": {}, "4k": {},
		"us": {}, "usa": {}, "uk": {}, "ca": {}, "canada": {}, "cdn": {},
		"hq": {}, "vip": {}, "backup": {}, "raw": {},
	}
	out := toks[:0]
	for _, t := range toks {
		if _, drop := noise[t]; drop {
			continue
		}
		out = append(out, t)
	}
	joined := strings.Join(out, "")
	joined = strings.ReplaceAll(joined, "channel", "")
	return joined
}

// ParseXMLTVChannels pull-parses the <channel> elements of an XMLTV
// document into a flat list of id + display names.
func ParseXMLTVChannels(r io.Reader) ([]XMLTVChannel, error) {
	dec := xml.NewDecoder(r)
	type displayName struct {
		Text string `xml:",chardata"`
	}
	type chNode struct {
		ID           string        `xml:"id,attr"`
		DisplayNames []displayName `xml:"display-name"`
	}
	var out []XMLTVChannel
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "channel" {
			continue
		}
		var node chNode
		if err := dec.DecodeElement(&node, &se); err != nil {
			return nil, err
		}
		if strings.TrimSpace(node.ID) == "" {
			continue
		}
		row := XMLTVChannel{ID: strings.TrimSpace(node.ID)}
		for _, dn := range node.DisplayNames {
			if name := strings.TrimSpace(dn.Text); name != "" {
				row.DisplayNames = append(row.DisplayNames, name)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// LoadAliasOverrides reads a JSON {"name_to_xmltv_id": {...}} document.
func LoadAliasOverrides(r io.Reader) (AliasOverrides, error) {
	var raw struct {
		NameToXMLTVID map[string]string `json:"name_to_xmltv_id"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return AliasOverrides{}, err
	}
	norm := make(map[string]string, len(raw.NameToXMLTVID))
	for k, v := range raw.NameToXMLTVID {
		nk := NormalizeName(k)
		if nk == "" || strings.TrimSpace(v) == "" {
			continue
		}
		norm[nk] = strings.TrimSpace(v)
	}
	return AliasOverrides{NameToXMLTVID: norm}, nil
}

// MatchGroups resolves every live-cluster item across groups against the
// parsed XMLTV channel list, tier 1 tvg-id exact -> tier 1b alias override
// -> tier 2 normalized-name-exact-if-unique.
func MatchGroups(groups []*model.Group, xmltv []XMLTVChannel, aliases AliasOverrides) Report {
	byID := map[string]string{}
	nameToID := map[string]string{} // "" value means ambiguous
	for _, ch := range xmltv {
		idKey := strings.ToLower(strings.TrimSpace(ch.ID))
		if idKey != "" {
			byID[idKey] = ch.ID
		}
		names := append([]string{ch.ID}, ch.DisplayNames...)
		for _, n := range names {
			nk := NormalizeName(n)
			if nk == "" {
				continue
			}
			if existing, ok := nameToID[nk]; ok && existing != ch.ID {
				nameToID[nk] = ""
				continue
			}
			nameToID[nk] = ch.ID
		}
	}

	rep := Report{Methods: map[string]int{}}
	for _, g := range groups {
		if g.Cluster != model.ClusterLive {
			continue
		}
		for _, item := range g.Items {
			rep.TotalChannels++
			row := ChannelMatch{
				Group:         g.Title,
				Title:         item.Title,
				ProviderTVGID: item.EPGChannelID,
				Normalized:    NormalizeName(item.Title),
				item:          item,
			}
			if tid := strings.ToLower(strings.TrimSpace(item.EPGChannelID)); tid != "" {
				if xmlID, ok := byID[tid]; ok {
					row.Matched, row.MatchedXMLTV, row.Method = true, xmlID, MatchTVGIDExact
				}
			}
			if !row.Matched && row.Normalized != "" {
				if xmlID := aliases.NameToXMLTVID[row.Normalized]; xmlID != "" {
					row.Matched, row.MatchedXMLTV, row.Method = true, xmlID, MatchAliasExact
				}
			}
			if !row.Matched && row.Normalized != "" {
				if xmlID, ok := nameToID[row.Normalized]; ok {
					if xmlID != "" {
						row.Matched, row.MatchedXMLTV, row.Method = true, xmlID, MatchNormalizedNameExact
					} else {
						row.Reason = "ambiguous normalized name"
					}
				}
			}
			if !row.Matched && row.Reason == "" {
				row.Reason = "no deterministic match"
			}
			if row.Matched {
				rep.Matched++
				rep.Methods[string(row.Method)]++
			}
			rep.Rows = append(rep.Rows, row)
		}
	}
	rep.Unmatched = rep.TotalChannels - rep.Matched
	sort.SliceStable(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].Matched != rep.Rows[j].Matched {
			return rep.Rows[j].Matched
		}
		return strings.ToLower(rep.Rows[i].Title) < strings.ToLower(rep.Rows[j].Title)
	})
	return rep
}

// ApplyDeterministicMatches writes resolved epg_channel_id values back onto
// their items. Items that already carry a non-empty epg_channel_id are left
// untouched and counted as AlreadyLinked.
func ApplyDeterministicMatches(rep Report) ApplyResult {
	res := ApplyResult{Methods: map[string]int{}}
	for _, row := range rep.Rows {
		if row.item == nil {
			continue
		}
		if strings.TrimSpace(row.item.EPGChannelID) != "" {
			res.AlreadyLinked++
			continue
		}
		if !row.Matched || strings.TrimSpace(row.MatchedXMLTV) == "" {
			continue
		}
		row.item.SetField("epg_channel_id", row.MatchedXMLTV)
		res.Applied++
		if row.Method != "" {
			res.Methods[string(row.Method)]++
		}
	}
	return res
}

func (r Report) SummaryString() string {
	methods := make([]string, 0, len(r.Methods))
	for k := range r.Methods {
		methods = append(methods, k)
	}
	sort.Strings(methods)
	var b strings.Builder
	fmt.Fprintf(&b, "EPG matches: %d/%d (%.1f%%)", r.Matched, r.TotalChannels, pct(r.Matched, r.TotalChannels))
	if len(methods) > 0 {
		b.WriteString(" [")
		for i, k := range methods {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%d", k, r.Methods[k])
		}
		b.WriteString("]")
	}
	return b.String()
}

func pct(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) * 100 / float64(b)
}
