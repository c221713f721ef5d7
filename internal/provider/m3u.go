package provider

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/provider/fetch"
	"github.com/m3uflux/m3uflux/internal/safeurl"
)

const maxLineSize = 1 << 20 // 1 MiB per line

// FetchM3U downloads and streams-parses an M3U playlist into a
// FetchedPlaylist grouped by group-title. Grounded on the teacher's
// internal/indexer/fetch/fetcher.go parseM3UStream, generalized from
// catalog.LiveChannel to model.Item/Group and extended to recognize VOD and
// series items via the tvg-type attribute (group-title only names the group).
func FetchM3U(ctx context.Context, client *http.Client, m3uURL string) (*model.FetchedPlaylist, error) {
	body, _, err := fetch.Get(ctx, client, m3uURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseM3UReader(body, m3uURL)
}

// ParseM3UReader parses an M3U document from r without performing any
// network I/O. inputRef is recorded on the resulting playlist for diagnostics.
func ParseM3UReader(r io.Reader, inputRef string) (*model.FetchedPlaylist, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLineSize)

	groups := map[string]*model.Group{}
	var order []string
	var epgPath string

	var attrs map[string]string
	var title string

	emit := func(url string) {
		if attrs == nil || url == "" {
			return
		}
		groupTitle := attrs["group-title"]
		g, ok := groups[groupTitle]
		if !ok {
			g = &model.Group{Title: groupTitle, Cluster: clusterFromAttrs(attrs)}
			groups[groupTitle] = g
			order = append(order, groupTitle)
		}
		it := itemFromEXTINF(attrs, title, url, g.Cluster)
		g.Items = append(g.Items, it)
		attrs, title = nil, ""
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTM3U") {
			hdr, _ := parseEXTINF(strings.TrimPrefix(line, "#EXTM3U"))
			if u := hdr["url-tvg"]; u != "" {
				epgPath = u
			} else if u := hdr["x-tvg-url"]; u != "" {
				epgPath = u
			}
			continue
		}
		if strings.HasPrefix(line, "#EXTINF:") {
			attrs, title = parseEXTINF(line)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if safeurl.IsHTTPOrHTTPS(line) {
			emit(line)
			continue
		}
		attrs, title = nil, ""
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	playlist := &model.FetchedPlaylist{InputRef: inputRef, EPGPath: epgPath}
	for _, name := range order {
		playlist.Groups = append(playlist.Groups, groups[name])
	}
	return playlist, nil
}

func clusterFromAttrs(attrs map[string]string) model.Cluster {
	switch strings.ToLower(attrs["tvg-type"]) {
	case "movie", "vod":
		return model.ClusterVideo
	case "series":
		return model.ClusterSeries
	}
	return model.ClusterLive
}

func itemFromEXTINF(attrs map[string]string, title, url string, cluster model.Cluster) *model.Item {
	it := &model.Item{ItemHeader: model.ItemHeader{
		Name:         title,
		Title:        title,
		URL:          url,
		Group:        attrs["group-title"],
		Logo:         attrs["tvg-logo"],
		LogoSmall:    attrs["tvg-logo-small"],
		Chno:         attrs["tvg-chno"],
		ParentCode:   attrs["parent-code"],
		AudioTrack:   attrs["audio-track"],
		Rec:          attrs["tvg-rec"],
		EPGChannelID: attrs["tvg-id"],
		Cluster:      cluster,
		ItemType:     itemTypeFor(cluster),
	}}
	if ts := attrs["timeshift"]; ts != "" {
		it.TimeShift = ts
	}
	it.GenerateUUID()
	return it
}

func itemTypeFor(c model.Cluster) model.ItemType {
	switch c {
	case model.ClusterVideo:
		return model.ItemTypeVideo
	case model.ClusterSeries:
		return model.ItemTypeSeries
	default:
		return model.ItemTypeLive
	}
}

// parseEXTINF splits an #EXTINF line into its quoted key="value" attributes
// and the trailing display title after the last comma. Grounded on the
// teacher's internal/indexer/fetch/fetcher.go parseEXTINF.
func parseEXTINF(line string) (attrs map[string]string, title string) {
	attrs = make(map[string]string)
	line = strings.TrimPrefix(line, "#EXTINF:")
	if idx := strings.LastIndex(line, ","); idx >= 0 && idx+1 < len(line) {
		title = strings.TrimSpace(line[idx+1:])
		line = line[:idx]
	}
	for {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			break
		}
		before := strings.TrimSpace(line[:eq])
		key := before
		if idx := strings.LastIndex(before, " "); idx >= 0 {
			key = strings.TrimSpace(before[idx+1:])
		}
		line = strings.TrimSpace(line[eq+1:])
		if len(line) < 2 {
			break
		}
		quote := line[0]
		if quote != '"' && quote != '\'' {
			break
		}
		line = line[1:]
		end := strings.IndexByte(line, quote)
		if end < 0 {
			break
		}
		attrs[key] = line[:end]
		line = line[end+1:]
	}
	return attrs, title
}
