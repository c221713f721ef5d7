package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m3uflux/m3uflux/internal/config"
	"github.com/m3uflux/m3uflux/internal/model"
)

func TestM3uEntryOmitsEmptyLogoAttrs(t *testing.T) {
	it := model.M3uItem{Name: "Chan", Group: "News"}
	line := m3uEntry(it, config.Options{IgnoreLogo: false})
	if containsAttr(line, "tvg-logo") || containsAttr(line, "tvg-logo-small") {
		t.Fatalf("empty logo fields must not appear as attributes: %q", line)
	}
}

func TestM3uEntryIgnoreLogoSuppressesNonEmptyLogo(t *testing.T) {
	it := model.M3uItem{Name: "Chan", Group: "News", Logo: "http://logo", LogoSmall: "http://small"}
	line := m3uEntry(it, config.Options{IgnoreLogo: true})
	if containsAttr(line, "tvg-logo") {
		t.Fatalf("ignore_logo must suppress tvg-logo even when non-empty: %q", line)
	}
}

func TestM3uEntryAttributeOrder(t *testing.T) {
	it := model.M3uItem{
		EPGChannelID: "chan.1", Name: "Chan", Group: "News",
		Logo: "http://logo", Chno: "5", ParentCode: "pc", AudioTrack: "eng",
		TimeShift: "2", Rec: "1", Title: "Evening News", URL: "http://stream",
	}
	line := m3uEntry(it, config.Options{})
	want := "#EXTINF:-1 tvg-id=\"chan.1\" tvg-name=\"Chan\" group-title=\"News\" tvg-logo=\"http://logo\" tvg-chno=\"5\" parent-code=\"pc\" audio-track=\"eng\" timeshift=\"2\" tvg-rec=\"1\",Evening News\nhttp://stream\n"
	if line != want {
		t.Fatalf("m3uEntry() =\n%q\nwant\n%q", line, want)
	}
}

func containsAttr(s, attr string) bool {
	return len(s) > 0 && (indexOf(s, attr+`="`) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestWriteStrmUnderscoreWhitespace(t *testing.T) {
	dir := t.TempDir()
	groups := []*model.Group{
		{
			Title: "News HD!",
			Items: []*model.Item{
				{ItemHeader: model.ItemHeader{Title: "Evening 7pm", URL: "http://stream/evening"}},
			},
		},
	}
	target := config.Target{
		Filename: "strm-root",
		Options:  config.Options{UnderscoreWhitespace: true},
	}
	if err := WriteStrm(groups, target, dir); err != nil {
		t.Fatalf("WriteStrm: %v", err)
	}
	path := filepath.Join(dir, "strm-root", "News_HD", "Evening_7pm.strm")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
	if string(data) != "http://stream/evening" {
		t.Fatalf("strm contents = %q, want exactly the URL bytes", string(data))
	}
}

func TestWriteM3uBasicShape(t *testing.T) {
	dir := t.TempDir()
	groups := []*model.Group{
		{
			Title: "News",
			Items: []*model.Item{
				{ItemHeader: model.ItemHeader{Name: "Chan", Title: "Chan", Group: "News", URL: "http://stream"}},
			},
		},
	}
	target := config.Target{Filename: "out.m3u"}
	if err := WriteM3u(groups, target, dir); err != nil {
		t.Fatalf("WriteM3u: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.m3u"))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if got[:8] != "#EXTM3U\n" {
		t.Fatalf("m3u file must start with #EXTM3U: %q", got[:16])
	}
}
