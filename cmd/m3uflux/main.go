// Command m3uflux polls an M3U or Xtream provider, runs each configured
// target's rename/sort/filter/virtual-id pipeline, writes the resulting M3u,
// Strm or Xtream artifacts, and serves get.php/xmltv.php/epg/healthz/metrics
// over HTTP. Flag and signal-handling shape adapted from the teacher's
// cmd/plex-tuner/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/epg"
	"github.com/m3uflux/m3uflux/internal/health"
	"github.com/m3uflux/m3uflux/internal/httpapi"
	"github.com/m3uflux/m3uflux/internal/httpclient"
	"github.com/m3uflux/m3uflux/internal/idstore"
	"github.com/m3uflux/m3uflux/internal/provider"
	"github.com/m3uflux/m3uflux/internal/provider/fetch"
	"github.com/m3uflux/m3uflux/internal/transform"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	m3uURL := flag.String("m3u", "", "full M3U playlist URL (overrides M3UFLUX_M3U_URL)")
	apiBase := flag.String("api", "", "Xtream player_api.php base URL (overrides M3UFLUX_PROVIDER_URL)")
	user := flag.String("user", "", "Xtream username (overrides M3UFLUX_PROVIDER_USER)")
	pass := flag.String("pass", "", "Xtream password (overrides M3UFLUX_PROVIDER_PASS)")
	streamExt := flag.String("stream-ext", "ts", "Xtream live stream container extension")

	targetName := flag.String("target-name", "default", "name of the single output target this process writes")
	output := flag.String("output", "M3u", "output kind: M3u, Strm or Xtream")
	filename := flag.String("filename", "playlist.m3u", "output path, relative to -working-dir")
	sortOrder := flag.String("sort", "", "group sort order: Asc, Desc, or empty for input order")

	epgSourceURL := flag.String("epg-source", "", "upstream XMLTV URL served (time-shifted) at /xmltv.php and /epg")
	xmltvAliases := flag.String("epg-aliases", "", "optional path to a channel-name-to-xmltv-id overrides JSON file")

	pollInterval := flag.Duration("poll-interval", 30*time.Minute, "how often to re-fetch the provider and rewrite targets")
	once := flag.Bool("once", false, "fetch and write once, then exit instead of serving HTTP")

	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Printf("m3uflux: loading %s: %v", *envFile, err)
	}
	cfg := config.Load()
	if *m3uURL != "" {
		cfg.M3UURL = *m3uURL
	}
	if *apiBase != "" {
		cfg.ProviderBaseURL = *apiBase
	}
	if *user != "" {
		cfg.ProviderUser = *user
	}
	if *pass != "" {
		cfg.ProviderPass = *pass
	}

	target := config.Target{
		Name:     *targetName,
		Output:   config.OutputKind(*output),
		Filename: *filename,
	}
	if *sortOrder != "" {
		target.Sort = &config.SortSpec{Order: config.SortOrder(*sortOrder)}
	}
	if *epgSourceURL != "" {
		// Configured means "has an EPGFile path assigned", independent of
		// whether a fetch has populated it yet — see config.Target.EPGFile.
		target.EPGFile = target.Name + ".xmltv"
	}

	src := provider.Source{M3UURL: cfg.M3UURL}
	if cfg.M3UURL == "" && cfg.ProviderBaseURL != "" {
		src.Xtream = &provider.XtreamConfig{
			APIBase:   cfg.ProviderBaseURL,
			Username:  cfg.ProviderUser,
			Password:  cfg.ProviderPass,
			StreamExt: *streamExt,
		}
	}

	if err := os.MkdirAll(cfg.IDStoreDir, 0o755); err != nil {
		log.Fatalf("m3uflux: create idstore dir: %v", err)
	}
	if err := os.MkdirAll(cfg.WorkingDir, 0o755); err != nil {
		log.Fatalf("m3uflux: create working dir: %v", err)
	}
	store, err := idstore.Open(fmt.Sprintf("%s/%s.db", cfg.IDStoreDir, target.Name))
	if err != nil {
		log.Fatalf("m3uflux: open idstore: %v", err)
	}
	defer store.Close()

	var aliases epg.AliasOverrides
	if *xmltvAliases != "" {
		f, err := os.Open(*xmltvAliases)
		if err != nil {
			log.Fatalf("m3uflux: open %s: %v", *xmltvAliases, err)
		}
		aliases, err = epg.LoadAliasOverrides(f)
		f.Close()
		if err != nil {
			log.Fatalf("m3uflux: parse %s: %v", *xmltvAliases, err)
		}
	}

	srv := &httpapi.Server{
		Addr:       cfg.ListenAddr,
		WorkingDir: cfg.WorkingDir,
		Targets:    []config.Target{target},
		HTTPClient: newHTTPClient(cfg),
	}

	runOnce := func(ctx context.Context) error {
		httpClient := newHTTPClient(cfg)

		fetchStart := time.Now()
		playlist, err := provider.Fetch(ctx, httpClient, src)
		health.FetchDuration.Observe(time.Since(fetchStart).Seconds())
		if err != nil {
			health.FetchTotal.WithLabelValues("error").Inc()
			srv.RecordFetch(false)
			return fmt.Errorf("fetch provider: %w", err)
		}

		epgSource := *epgSourceURL
		if epgSource == "" && playlist.EPGPath != "" {
			// No -epg-source flag given: fall back to the EPG URL the
			// provider itself advertised in its #EXTM3U url-tvg/x-tvg-url
			// header.
			epgSource = playlist.EPGPath
			if target.EPGFile == "" {
				target.EPGFile = target.Name + ".xmltv"
				srv.Targets[0] = target
			}
		}

		if target.EPGFile != "" {
			epgPath := filepath.Join(cfg.WorkingDir, target.EPGFile)
			if err := downloadEPGFile(ctx, httpClient, epgSource, epgPath); err != nil {
				log.Printf("m3uflux: epg fetch: %v", err)
			} else if f, err := os.Open(epgPath); err != nil {
				log.Printf("m3uflux: reopen %s for channel matching: %v", epgPath, err)
			} else {
				channels, err := epg.ParseXMLTVChannels(f)
				f.Close()
				if err != nil {
					log.Printf("m3uflux: parse xmltv channels: %v", err)
				} else {
					report := epg.MatchGroups(playlist.Groups, channels, aliases)
					applied := epg.ApplyDeterministicMatches(report)
					log.Print(report.SummaryString())
					log.Printf("m3uflux: epg link applied=%d already_linked=%d", applied.Applied, applied.AlreadyLinked)
				}
			}
		}

		if err := transform.Run(playlist, target, store, nil, cfg.WorkingDir); err != nil {
			health.FetchTotal.WithLabelValues("error").Inc()
			srv.RecordFetch(false)
			return fmt.Errorf("transform: %w", err)
		}
		health.TargetsWritten.WithLabelValues(target.Name, string(target.Output)).Inc()
		health.FetchTotal.WithLabelValues("ok").Inc()
		health.ActiveGroups.Set(float64(len(playlist.Groups)))
		srv.RecordFetch(true)
		log.Printf("m3uflux: wrote target %q (%s) with %d groups", target.Name, target.Output, len(playlist.Groups))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := runOnce(ctx); err != nil {
			log.Fatalf("m3uflux: %v", err)
		}
		return
	}

	if err := runOnce(ctx); err != nil {
		log.Printf("m3uflux: initial fetch failed: %v", err)
	}

	go pollLoop(ctx, *pollInterval, runOnce)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("m3uflux: http server: %v", err)
	}
	log.Print("m3uflux: shut down")
}

func newHTTPClient(cfg *config.Config) *http.Client {
	httpclient.GlobalHostRate.Configure(cfg.RateLimitRPS, int(cfg.RateLimitRPS)+1)
	return httpclient.WithTimeout(cfg.FetchTimeout)
}

// downloadEPGFile fetches url and writes its (already gzip/br-decoded) body
// to destPath, via a temp-file-then-rename so a reader never observes a
// partially-written file. This is the file internal/httpapi.Server resolves
// per (user, target) at serve time — a slow or failing EPG source here
// leaves the previous file (or none) in place rather than blocking or
// corrupting a request.
func downloadEPGFile(ctx context.Context, client *http.Client, url, destPath string) error {
	body, _, err := fetch.Get(ctx, client, url)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func pollLoop(ctx context.Context, interval time.Duration, runOnce func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := runOnce(ctx); err != nil {
				log.Printf("m3uflux: scheduled fetch failed: %v", err)
			}
		}
	}
}
