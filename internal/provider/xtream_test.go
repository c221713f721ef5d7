package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchXtreamGroupsLiveAndVOD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/player_api.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "get_live_categories":
			json.NewEncoder(w).Encode([]map[string]any{
				{"category_id": "1", "category_name": "News"},
			})
		case "get_live_streams":
			json.NewEncoder(w).Encode([]map[string]any{
				{"num": 1, "name": "Channel One", "stream_id": 100, "epg_channel_id": "ch1", "category_id": "1"},
			})
		case "get_vod_categories":
			json.NewEncoder(w).Encode([]map[string]any{
				{"category_id": "2", "category_name": "Movies"},
			})
		case "get_vod_streams":
			json.NewEncoder(w).Encode([]map[string]any{
				{"stream_id": 200, "name": "A Film", "container_extension": "mp4", "category_id": "2"},
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := XtreamConfig{APIBase: srv.URL, Username: "u", Password: "p"}
	pl, err := FetchXtream(context.Background(), srv.Client(), cfg)
	if err != nil {
		t.Fatalf("FetchXtream: %v", err)
	}
	if len(pl.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(pl.Groups), pl.Groups)
	}
	var news, movies bool
	for _, g := range pl.Groups {
		if g.Title == "News" && len(g.Items) == 1 && g.Items[0].EPGChannelID == "ch1" {
			news = true
		}
		if g.Title == "Movies" && len(g.Items) == 1 && g.Items[0].Title == "A Film" {
			movies = true
		}
	}
	if !news {
		t.Error("expected resolved News group with channel ch1")
	}
	if !movies {
		t.Error("expected resolved Movies group with A Film")
	}
}
