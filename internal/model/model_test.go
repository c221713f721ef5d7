package model

import "testing"

func TestGenerateUUIDIsStableHashOfURL(t *testing.T) {
	a := &Item{ItemHeader: ItemHeader{URL: "http://example.com/stream/42.ts"}}
	a.GenerateUUID()
	want := a.UUID

	b := &Item{ItemHeader: ItemHeader{URL: "http://example.com/stream/42.ts", Name: "different name"}}
	b.GenerateUUID()
	if b.UUID != want {
		t.Fatalf("uuid depends on field mutation order / other fields: %x != %x", b.UUID, want)
	}

	a.Name = "renamed"
	if a.UUID != want {
		t.Fatalf("mutating unrelated fields changed the uuid")
	}
}

func TestProviderIDParsesDirectID(t *testing.T) {
	it := &Item{ItemHeader: ItemHeader{ID: "123"}}
	id, ok := it.ProviderID()
	if !ok || id != 123 {
		t.Fatalf("ProviderID() = %d, %v; want 123, true", id, ok)
	}
}

func TestProviderIDFallsBackToURLAndBackPatches(t *testing.T) {
	it := &Item{ItemHeader: ItemHeader{ID: "not-numeric", URL: "http://host/live/user/pass/9981.ts"}}
	id, ok := it.ProviderID()
	if !ok || id != 9981 {
		t.Fatalf("ProviderID() = %d, %v; want 9981, true", id, ok)
	}
	if it.ID != "9981" {
		t.Fatalf("ProviderID did not back-patch ID: got %q", it.ID)
	}
}

func TestProviderIDNoneWhenUnresolvable(t *testing.T) {
	it := &Item{ItemHeader: ItemHeader{ID: "abc", URL: "http://host/no/numeric/here"}}
	if _, ok := it.ProviderID(); ok {
		t.Fatalf("ProviderID should fail when neither ID nor URL carries a numeric component")
	}
}

func TestFieldAccessorEPGChannelIDAlias(t *testing.T) {
	it := &Item{}
	if !it.SetField("epg_id", "chan.1") {
		t.Fatal("SetField(epg_id) failed")
	}
	got, ok := it.GetField("epg_channel_id")
	if !ok || got != "chan.1" {
		t.Fatalf("GetField(epg_channel_id) = %q, %v; want %q, true", got, ok, "chan.1")
	}
}

func TestFieldAccessorSetURLIsNoOp(t *testing.T) {
	it := &Item{ItemHeader: ItemHeader{URL: "http://original"}}
	it.SetField("url", "http://changed")
	if it.URL != "http://original" {
		t.Fatalf("SetField(url) must be a no-op, got %q", it.URL)
	}
}

func TestFieldAccessorUnknownField(t *testing.T) {
	it := &Item{}
	if _, ok := it.GetField("virtual_id"); ok {
		t.Fatal("virtual_id must not be reflectively accessible")
	}
	if it.SetField("virtual_id", "7") {
		t.Fatal("virtual_id must not be reflectively settable")
	}
}

func TestClusterOfAgreesWithItemType(t *testing.T) {
	cases := []struct {
		it   ItemType
		want Cluster
	}{
		{ItemTypeLive, ClusterLive},
		{ItemTypeLiveHls, ClusterLive},
		{ItemTypeLiveUnknown, ClusterLive},
		{ItemTypeCatchup, ClusterLive},
		{ItemTypeVideo, ClusterVideo},
		{ItemTypeSeries, ClusterSeries},
		{ItemTypeSeriesInfo, ClusterSeries},
		{ItemTypeSeriesEpisode, ClusterSeries},
	}
	for _, c := range cases {
		if got := ClusterOf(c.it); got != c.want {
			t.Errorf("ClusterOf(%v) = %v, want %v", c.it, got, c.want)
		}
	}
}
