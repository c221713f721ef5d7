package httpapi

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/xtreamstore"
)

func TestHandleHealthzBeforeFirstFetch(t *testing.T) {
	s := &Server{WorkingDir: t.TempDir()}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first fetch, got %d", w.Code)
	}
}

func TestHandleHealthzAfterFetch(t *testing.T) {
	s := &Server{WorkingDir: t.TempDir()}
	s.RecordFetch(true)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after fetch, got %d", w.Code)
	}
	var body healthzResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ok" || !body.LastFetchOK {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandleGetPHPRequiresParams(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/get.php", nil)
	w := httptest.NewRecorder()
	s.handleGetPHP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleGetPHPLooksUpVirtualID(t *testing.T) {
	dir := t.TempDir()
	groups := []*model.Group{{
		Title: "News",
		Items: []*model.Item{{ItemHeader: model.ItemHeader{
			VirtualID: 7,
			Title:     "Channel Seven",
			URL:       "http://provider.example/live/7.m3u8",
		}}},
	}}
	target := config.Target{Name: "xc", Output: config.OutputXtream, Filename: "xc"}
	if err := xtreamstore.Write(groups, target, dir); err != nil {
		t.Fatalf("xtreamstore.Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "xc.idx")); err != nil {
		t.Fatalf("expected index file: %v", err)
	}

	s := &Server{WorkingDir: dir, Targets: []config.Target{target}}
	req := httptest.NewRequest(http.MethodGet, "/get.php?target=xc&virtual_id=7", nil)
	w := httptest.NewRecorder()
	s.handleGetPHP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleGetPHPUnknownTarget(t *testing.T) {
	s := &Server{WorkingDir: t.TempDir()}
	req := httptest.NewRequest(http.MethodGet, "/get.php?target=nope&virtual_id=1", nil)
	w := httptest.NewRecorder()
	s.handleGetPHP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

// TestHandleEPGResolutionLadder covers spec's three documented /xmltv.php
// and /epg response shapes: unconfigured-or-unknown target (200, minimal
// empty <tv>), configured-but-absent file (204), and a present file (200,
// gzip-compressed XMLTV).
func TestHandleEPGResolutionLadder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "withepg.xmltv"), []byte(`<?xml version="1.0"?><tv><channel id="one"/></tv>`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	targets := []config.Target{
		{Name: "noepg"},
		{Name: "missingfile", EPGFile: "missingfile.xmltv"},
		{Name: "withepg", EPGFile: "withepg.xmltv"},
	}

	cases := []struct {
		name       string
		query      string
		wantStatus int
		wantGzip   bool
	}{
		{"unknown target", "/epg?target=nope", http.StatusOK, false},
		{"no query at all", "/epg", http.StatusOK, false},
		{"target with no epg configured", "/xmltv.php?target=noepg", http.StatusOK, false},
		{"target configured but file absent", "/xmltv.php?target=missingfile", http.StatusNoContent, false},
		{"target with epg file present", "/epg?target=withepg", http.StatusOK, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &Server{WorkingDir: dir, Targets: targets}
			req := httptest.NewRequest(http.MethodGet, c.query, nil)
			w := httptest.NewRecorder()
			s.handleEPG(w, req)

			if w.Code != c.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, c.wantStatus)
			}
			if c.wantStatus == http.StatusNoContent {
				return
			}
			if !c.wantGzip {
				if !strings.Contains(w.Body.String(), "<tv></tv>") {
					t.Fatalf("expected minimal empty <tv> document, got %q", w.Body.String())
				}
				return
			}
			gz, err := gzip.NewReader(w.Body)
			if err != nil {
				t.Fatalf("gzip.NewReader: %v", err)
			}
			out, err := io.ReadAll(gz)
			if err != nil {
				t.Fatalf("read gzip body: %v", err)
			}
			if !strings.Contains(string(out), `id="one"`) {
				t.Fatalf("expected rewritten xmltv body, got %q", out)
			}
		})
	}
}
