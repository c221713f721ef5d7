package transform

import (
	"path/filepath"
	"testing"

	"github.com/m3uflux/m3uflux/internal/idstore"
	"github.com/m3uflux/m3uflux/internal/model"
)

func TestAssignVirtualIDsStableAcrossRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ids.db")
	store, err := idstore.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	g := &model.Group{
		Items: []*model.Item{
			{ItemHeader: model.ItemHeader{URL: "http://host/a"}},
			{ItemHeader: model.ItemHeader{URL: "http://host/b"}},
		},
	}
	if err := AssignVirtualIDs(g, store); err != nil {
		t.Fatal(err)
	}
	firstA, firstB := g.Items[0].VirtualID, g.Items[1].VirtualID
	if firstA == 0 || firstB == 0 || firstA == firstB {
		t.Fatalf("expected distinct nonzero virtual ids, got %d and %d", firstA, firstB)
	}

	// Re-running against a freshly loaded group (same URLs) must yield the
	// same virtual ids from the persistent store.
	g2 := &model.Group{
		Items: []*model.Item{
			{ItemHeader: model.ItemHeader{URL: "http://host/b"}},
			{ItemHeader: model.ItemHeader{URL: "http://host/a"}},
		},
	}
	if err := AssignVirtualIDs(g2, store); err != nil {
		t.Fatal(err)
	}
	if g2.Items[0].VirtualID != firstB || g2.Items[1].VirtualID != firstA {
		t.Fatalf("virtual ids not stable across runs: got %d,%d want %d,%d",
			g2.Items[0].VirtualID, g2.Items[1].VirtualID, firstB, firstA)
	}
}
