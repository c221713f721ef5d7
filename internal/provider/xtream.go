package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/provider/fetch"
)

// XtreamConfig names the upstream player_api.php endpoint and the
// credentials used for both the API calls and the generated stream URLs.
type XtreamConfig struct {
	APIBase   string
	Username  string
	Password  string
	StreamExt string // e.g. "m3u8", "ts"; defaults to "m3u8"
}

// FetchXtream indexes live and VOD categories from an Xtream player_api,
// grouped by provider category name. Series categories are not fetched. Grounded on the teacher's
// internal/indexer/player_api.go, generalized from catalog.{Movie,Series,
// LiveChannel} to model.Item/Group and simplified to a single synchronous
// crawl (SPEC_FULL.md's ingestion has no checkpoint/resume requirement).
func FetchXtream(ctx context.Context, client *http.Client, cfg XtreamConfig) (*model.FetchedPlaylist, error) {
	if cfg.StreamExt == "" {
		cfg.StreamExt = "m3u8"
	}
	cfg.APIBase = strings.TrimSuffix(cfg.APIBase, "/")

	playlist := &model.FetchedPlaylist{InputRef: cfg.APIBase}

	liveCats, err := xtreamCategories(ctx, client, cfg, "get_live_categories")
	if err != nil {
		return nil, fmt.Errorf("xtream: live categories: %w", err)
	}
	live, err := xtreamLiveStreams(ctx, client, cfg)
	if err != nil {
		return nil, fmt.Errorf("xtream: live streams: %w", err)
	}
	appendByCategory(playlist, live, liveCats, model.ClusterLive)

	vodCats, err := xtreamCategories(ctx, client, cfg, "get_vod_categories")
	if err != nil {
		return nil, fmt.Errorf("xtream: vod categories: %w", err)
	}
	vod, err := xtreamVODStreams(ctx, client, cfg)
	if err != nil {
		return nil, fmt.Errorf("xtream: vod streams: %w", err)
	}
	appendByCategory(playlist, vod, vodCats, model.ClusterVideo)

	sort.Slice(playlist.Groups, func(i, j int) bool {
		return playlist.Groups[i].Title < playlist.Groups[j].Title
	})
	return playlist, nil
}

func appendByCategory(playlist *model.FetchedPlaylist, items []*model.Item, catNames map[string]string, cluster model.Cluster) {
	byGroup := map[string]*model.Group{}
	for _, g := range playlist.Groups {
		byGroup[g.Title] = g
	}
	for _, it := range items {
		title := catNames[it.Group]
		if title == "" {
			title = it.Group
		}
		g, ok := byGroup[title]
		if !ok {
			g = &model.Group{Title: title, Cluster: cluster}
			byGroup[title] = g
			playlist.Groups = append(playlist.Groups, g)
		}
		it.Group = title
		g.Items = append(g.Items, it)
	}
}

func xtreamURL(cfg XtreamConfig, action string) string {
	u := cfg.APIBase + "/player_api.php?username=" + url.QueryEscape(cfg.Username) +
		"&password=" + url.QueryEscape(cfg.Password)
	if action != "" {
		u += "&action=" + url.QueryEscape(action)
	}
	return u
}

func xtreamGetJSON(ctx context.Context, client *http.Client, rawURL string, out interface{}) error {
	body, _, err := fetch.Get(ctx, client, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(out)
}

func xtreamCategories(ctx context.Context, client *http.Client, cfg XtreamConfig, action string) (map[string]string, error) {
	var raw []map[string]interface{}
	if err := xtreamGetJSON(ctx, client, xtreamURL(cfg, action), &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for _, r := range raw {
		id := stringField(r["category_id"])
		name := strings.TrimSpace(stringField(r["category_name"]))
		if id == "" || name == "" {
			continue
		}
		out[id] = name
	}
	return out, nil
}

func xtreamLiveStreams(ctx context.Context, client *http.Client, cfg XtreamConfig) ([]*model.Item, error) {
	var raw []struct {
		Num          interface{} `json:"num"`
		Name         string      `json:"name"`
		StreamID     int         `json:"stream_id"`
		EpgChannelID string      `json:"epg_channel_id"`
		CategoryID   interface{} `json:"category_id"`
	}
	if err := xtreamGetJSON(ctx, client, xtreamURL(cfg, "get_live_streams"), &raw); err != nil {
		return nil, err
	}
	out := make([]*model.Item, 0, len(raw))
	for _, r := range raw {
		streamID := strconv.Itoa(r.StreamID)
		streamURL := fmt.Sprintf("%s/live/%s/%s/%s.%s", cfg.APIBase, cfg.Username, cfg.Password, streamID, cfg.StreamExt)
		it := &model.Item{ItemHeader: model.ItemHeader{
			ID:           streamID,
			Name:         r.Name,
			Title:        r.Name,
			URL:          streamURL,
			Group:        stringField(r.CategoryID),
			EPGChannelID: strings.TrimSpace(r.EpgChannelID),
			Cluster:      model.ClusterLive,
			ItemType:     model.ItemTypeLive,
		}}
		it.GenerateUUID()
		out = append(out, it)
	}
	return out, nil
}

func xtreamVODStreams(ctx context.Context, client *http.Client, cfg XtreamConfig) ([]*model.Item, error) {
	var raw []struct {
		StreamID   int         `json:"stream_id"`
		Name       string      `json:"name"`
		Container  string      `json:"container_extension"`
		StreamIcon string      `json:"stream_icon"`
		CategoryID interface{} `json:"category_id"`
	}
	if err := xtreamGetJSON(ctx, client, xtreamURL(cfg, "get_vod_streams"), &raw); err != nil {
		return nil, err
	}
	out := make([]*model.Item, 0, len(raw))
	for _, r := range raw {
		ext := r.Container
		if ext == "" {
			ext = "mp4"
		}
		streamID := strconv.Itoa(r.StreamID)
		streamURL := fmt.Sprintf("%s/movie/%s/%s/%s.%s", cfg.APIBase, cfg.Username, cfg.Password, streamID, ext)
		it := &model.Item{ItemHeader: model.ItemHeader{
			ID:       streamID,
			Name:     r.Name,
			Title:    r.Name,
			URL:      streamURL,
			Group:    stringField(r.CategoryID),
			Logo:     normaliseArtwork(r.StreamIcon, cfg.APIBase),
			Cluster:  model.ClusterVideo,
			ItemType: model.ItemTypeVideo,
		}}
		it.GenerateUUID()
		out = append(out, it)
	}
	return out, nil
}

func normaliseArtwork(icon, apiBase string) string {
	if icon == "" {
		return ""
	}
	if strings.HasPrefix(icon, "http") {
		return icon
	}
	return strings.TrimSuffix(apiBase, "/") + "/" + strings.TrimPrefix(icon, "/")
}

func stringField(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.Itoa(int(x))
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}
