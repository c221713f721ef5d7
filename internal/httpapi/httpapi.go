// Package httpapi serves the process's external HTTP surface: the XMLTV/EPG
// time-shift endpoint, an Xtream-style get.php catalog lookup, liveness and
// Prometheus metrics. Grounded on the teacher's internal/tuner/server.go
// request-logging middleware and graceful-shutdown Run loop, and on
// original_source/src/api/xmltv_api.rs's get_epg_path_for_target /
// xmltv_api control flow for credential-driven timeshift resolution.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/epg"
	"github.com/m3uflux/m3uflux/internal/health"
	"github.com/m3uflux/m3uflux/internal/xtreamstore"
)

// minimalXMLTV is the document served at /xmltv.php and /epg when the
// requested target has no EPG configured at all, or the target/user cannot
// be resolved (spec's "missing user/target is surfaced as empty XMLTV
// document", distinct from "EPG configured but file absent", which is 204).
const minimalXMLTV = `<?xml version="1.0" encoding="UTF-8"?>` + "\n<tv></tv>\n"

// Server holds everything the HTTP surface needs that isn't per-request:
// the set of configured targets (for get.php's xtreamstore lookups and
// xmltv.php/epg's per-target EPG file resolution) and known users (for EPG
// timeshift resolution).
type Server struct {
	Addr       string
	WorkingDir string
	Targets    []config.Target
	Users      map[string]config.UserCredentials // keyed by Username
	HTTPClient *http.Client

	mu          sync.RWMutex
	lastFetchAt time.Time
	lastFetchOK bool
}

// RecordFetch is called by the pipeline driver after each provider fetch so
// /healthz can report freshness.
func (s *Server) RecordFetch(ok bool) {
	s.mu.Lock()
	s.lastFetchAt = time.Now()
	s.lastFetchOK = ok
	s.mu.Unlock()
}

func (s *Server) lastFetch() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchAt, s.lastFetchOK
}

func (s *Server) targetByName(name string) (config.Target, bool) {
	for _, t := range s.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return config.Target{}, false
}

func (s *Server) userByName(name string) (config.UserCredentials, bool) {
	u, ok := s.Users[name]
	return u, ok
}

// Routes builds the full mux: /get.php, /xmltv.php, /epg, /healthz, /metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get.php", s.handleGetPHP)
	mux.HandleFunc("/xmltv.php", s.handleEPG)
	mux.HandleFunc("/epg", s.handleEPG)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", health.MetricsHandler())
	return logRequests(mux)
}

// Run serves Routes() on Addr until ctx is cancelled, then shuts down
// gracefully. Adapted from the teacher's internal/tuner/server.go Run loop.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Routes()}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("httpapi: listening on %s", s.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Print("httpapi: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("httpapi: shutdown: %v", err)
		}
		<-serverErr
		return nil
	}
}

// handleGetPHP resolves ?target=<name>&virtual_id=<n> against that target's
// xtreamstore index, opening one bptree.TreeQuery for the lifetime of this
// request only.
func (s *Server) handleGetPHP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	virtualIDStr := r.URL.Query().Get("virtual_id")
	if target == "" || virtualIDStr == "" {
		health.GetPHPRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "target and virtual_id are required", http.StatusBadRequest)
		return
	}
	var virtualID uint32
	if _, err := fmt.Sscanf(virtualIDStr, "%d", &virtualID); err != nil {
		health.GetPHPRequests.WithLabelValues("bad_request").Inc()
		http.Error(w, "virtual_id must be numeric", http.StatusBadRequest)
		return
	}
	t, ok := s.targetByName(target)
	if !ok || t.Output != config.OutputXtream {
		health.GetPHPRequests.WithLabelValues("not_found").Inc()
		http.Error(w, "unknown xtream target", http.StatusNotFound)
		return
	}

	base := filepath.Join(s.WorkingDir, t.Filename)
	reader, err := xtreamstore.Open(base)
	if err != nil {
		health.GetPHPRequests.WithLabelValues("error").Inc()
		http.Error(w, fmt.Sprintf("open store: %v", err), http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	doc, found, err := reader.Lookup(virtualID)
	if err != nil {
		health.GetPHPRequests.WithLabelValues("error").Inc()
		http.Error(w, fmt.Sprintf("lookup: %v", err), http.StatusInternalServerError)
		return
	}
	if !found {
		health.GetPHPRequests.WithLabelValues("not_found").Inc()
		http.Error(w, "virtual_id not found", http.StatusNotFound)
		return
	}

	health.GetPHPRequests.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// handleEPG serves the time-shifted, gzip-compressed XMLTV guide for
// (username, target). Mounted at both /xmltv.php and /epg per spec.md's
// naming. Resolution ladder, per spec.md §4.4/§7/§8:
//
//   - target missing or unknown: 200, minimal empty <tv> document.
//   - target known but has no EPG configured (Target.EPGFile == ""): 200,
//     minimal empty <tv> document.
//   - target has EPG configured but the file isn't readable (not yet
//     fetched, or the last fetch failed): 204 No Content.
//   - file present: 200, gzip-compressed, time-shifted XMLTV stream.
//
// The timeshift offset is resolved in priority order: an explicit
// ?timeshift= query param, then the requesting user's
// UserCredentials.EPGTimeshift, else no shift.
func (s *Server) handleEPG(w http.ResponseWriter, r *http.Request) {
	t, ok := s.targetByName(r.URL.Query().Get("target"))
	if !ok || t.EPGFile == "" {
		health.EPGRequests.WithLabelValues("not_configured").Inc()
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, minimalXMLTV)
		return
	}

	f, err := os.Open(filepath.Join(s.WorkingDir, t.EPGFile))
	if err != nil {
		health.EPGRequests.WithLabelValues("file_absent").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	defer f.Close()

	offsetMinutes := 0
	if raw := r.URL.Query().Get("timeshift"); raw != "" {
		if m, ok := epg.ParseTimeshift(raw); ok {
			offsetMinutes = m
		}
	} else if username := r.URL.Query().Get("username"); username != "" {
		if u, ok := s.userByName(username); ok && u.EPGTimeshift != nil {
			if m, ok := epg.ParseTimeshift(*u.EPGTimeshift); ok {
				offsetMinutes = m
			}
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Encoding", "gzip")
	if err := epg.Rewrite(w, f, offsetMinutes); err != nil {
		health.EPGRequests.WithLabelValues("rewrite_error").Inc()
		// Headers are already sent; log and let the client see a truncated body.
		log.Printf("httpapi: epg rewrite: %v", err)
		return
	}
	health.EPGRequests.WithLabelValues("ok").Inc()
}

// healthzResponse is the JSON body of GET /healthz.
type healthzResponse struct {
	Status        string         `json:"status"`
	LastFetchAt   string         `json:"last_fetch_at,omitempty"`
	LastFetchOK   bool           `json:"last_fetch_ok"`
	TargetIndexes map[string]int64 `json:"target_index_bytes,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	at, ok := s.lastFetch()
	resp := healthzResponse{Status: "ok", LastFetchOK: ok}
	if !at.IsZero() {
		resp.LastFetchAt = at.Format(time.RFC3339)
	}
	resp.TargetIndexes = make(map[string]int64)
	for _, t := range s.Targets {
		if t.Output != config.OutputXtream {
			continue
		}
		path := filepath.Join(s.WorkingDir, t.Filename+".idx")
		if fi, err := os.Stat(path); err == nil {
			resp.TargetIndexes[t.Name] = fi.Size()
		}
	}
	if at.IsZero() {
		resp.Status = "loading"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	body, _ := json.Marshal(resp)
	_, _ = w.Write(body)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)
		status := lw.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("httpapi: %s %s status=%d bytes=%d dur=%s remote=%s",
			r.Method, r.URL.Path, status, lw.bytes, time.Since(start).Round(time.Millisecond), r.RemoteAddr)
	})
}
