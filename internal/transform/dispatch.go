// Output dispatch: write a transformed FetchedPlaylist to its target's sink.
// Grounded on original_source/src/m3u_processing.rs (write_m3u_playlist,
// write_strm_playlist, sanitize_for_filename) and the teacher's
// internal/catalog.Save atomic-write idiom.
package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/hashutil"
	"github.com/m3uflux/m3uflux/internal/model"
	"github.com/m3uflux/m3uflux/internal/pathutil"
)

// WriteM3u emits the flat M3U text file for target at workingDir-relative
// target.Filename. Entries are written in group then item order.
func WriteM3u(groups []*model.Group, target config.Target, workingDir string) error {
	path := pathutil.Resolve(workingDir, target.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("transform: mkdir for m3u target: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".m3u-*.tmp")
	if err != nil {
		return fmt.Errorf("transform: create temp m3u file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.WriteString("#EXTM3U\n"); err != nil {
		tmp.Close()
		return err
	}
	for _, g := range groups {
		for _, item := range g.Items {
			line := m3uEntry(item.ToM3uItem(), target.Options)
			if _, err := tmp.WriteString(line); err != nil {
				tmp.Close()
				return err
			}
		}
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("transform: publish m3u file: %w", err)
	}
	return nil
}

// m3uEntry renders one #EXTINF line + URL line per spec.md §4.3's exact
// attribute ordering contract.
func m3uEntry(it model.M3uItem, opts config.Options) string {
	var b strings.Builder
	b.WriteString("#EXTINF:-1 tvg-id=\"")
	b.WriteString(it.EPGChannelID)
	b.WriteString("\" tvg-name=\"")
	b.WriteString(it.Name)
	b.WriteString("\" group-title=\"")
	b.WriteString(it.Group)
	b.WriteString("\"")

	if !opts.IgnoreLogo {
		writeNonEmptyAttr(&b, "tvg-logo", it.Logo)
		writeNonEmptyAttr(&b, "tvg-logo-small", it.LogoSmall)
	}
	writeNonEmptyAttr(&b, "tvg-chno", it.Chno)
	writeNonEmptyAttr(&b, "parent-code", it.ParentCode)
	writeNonEmptyAttr(&b, "audio-track", it.AudioTrack)
	writeNonEmptyAttr(&b, "timeshift", it.TimeShift)
	writeNonEmptyAttr(&b, "tvg-rec", it.Rec)

	b.WriteString(",")
	b.WriteString(it.Title)
	b.WriteString("\n")
	b.WriteString(it.URL)
	b.WriteString("\n")
	return b.String()
}

func writeNonEmptyAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("=\"")
	b.WriteString(value)
	b.WriteString("\"")
}

// WriteStrm emits one <root>/<group>/<title>.strm file per channel,
// containing only the URL bytes. If target.Options.Cleanup is set, the
// target root is recursively removed before emission.
func WriteStrm(groups []*model.Group, target config.Target, workingDir string) error {
	root := pathutil.Resolve(workingDir, target.Filename)
	if target.Options.Cleanup {
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("transform: cleanup strm root: %w", err)
		}
	}
	underscore := target.Options.UnderscoreWhitespace

	for _, g := range groups {
		groupDir := filepath.Join(root, hashutil.SanitizeForPath(g.Title, underscore))
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return fmt.Errorf("transform: mkdir group dir: %w", err)
		}
		for _, item := range g.Items {
			name := hashutil.SanitizeForPath(item.Title, underscore) + ".strm"
			path := filepath.Join(groupDir, name)
			if err := os.WriteFile(path, []byte(item.URL), 0o644); err != nil {
				return fmt.Errorf("transform: write strm file %s: %w", path, err)
			}
		}
	}
	return nil
}
