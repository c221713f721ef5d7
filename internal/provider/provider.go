// Package provider fetches a provider's catalog — either a plain M3U
// playlist or an Xtream player_api — into the shared model.FetchedPlaylist
// shape the transform pipeline operates on. Grounded on the teacher's
// internal/indexer package (m3u.go, player_api.go), trimmed to the single
// synchronous fetch SPEC_FULL.md's ingestion step describes.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/m3uflux/m3uflux/internal/model"
)

// ErrNoSourceConfigured is returned by Fetch when neither an M3U URL nor
// Xtream credentials are configured.
var ErrNoSourceConfigured = errors.New("provider: no M3U URL or Xtream API configured")

// Source names where to pull a playlist from.
type Source struct {
	M3UURL  string
	Xtream  *XtreamConfig // nil disables Xtream ingestion
}

// Fetch resolves a Source into a FetchedPlaylist, preferring the plain M3U
// endpoint when both are configured (it's one request instead of the
// category-by-category Xtream crawl).
func Fetch(ctx context.Context, client *http.Client, src Source) (*model.FetchedPlaylist, error) {
	if src.M3UURL != "" {
		return FetchM3U(ctx, client, src.M3UURL)
	}
	if src.Xtream != nil {
		return FetchXtream(ctx, client, *src.Xtream)
	}
	return nil, ErrNoSourceConfigured
}
