package epg

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"
)

const sampleXMLTV = `<?xml version="1.0" encoding="UTF-8"?>
<tv source-info-name="test">
<channel id="chan.1"><display-name>Chan 1</display-name></channel>
<programme start="20240115103000 +0000" stop="20240115113000 +0000" channel="chan.1">
<title lang="en">Morning Show</title>
</programme>
</tv>`

func decompress(t *testing.T, gzipped []byte) string {
	t.Helper()
	r, err := gzip.NewReader(bytes.NewReader(gzipped))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read gzip stream: %v", err)
	}
	return string(out)
}

func TestRewriteShiftsStartStop(t *testing.T) {
	var buf bytes.Buffer
	if err := Rewrite(&buf, strings.NewReader(sampleXMLTV), 90); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	out := decompress(t, buf.Bytes())

	if !strings.Contains(out, `start="20240115120000 +0000"`) {
		t.Errorf("start not shifted correctly:\n%s", out)
	}
	if !strings.Contains(out, `stop="20240115130000 +0000"`) {
		t.Errorf("stop not shifted correctly:\n%s", out)
	}
	if !strings.Contains(out, `channel="chan.1"`) {
		t.Errorf("channel attribute not preserved:\n%s", out)
	}
	if !strings.Contains(out, `<title lang="en">Morning Show</title>`) {
		t.Errorf("non-programme content not preserved verbatim:\n%s", out)
	}
}

func TestRewriteZeroOffsetPreservesTimestamps(t *testing.T) {
	var buf bytes.Buffer
	if err := Rewrite(&buf, strings.NewReader(sampleXMLTV), 0); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	out := decompress(t, buf.Bytes())
	if !strings.Contains(out, `start="20240115103000 +0000"`) {
		t.Errorf("zero offset must not change timestamps:\n%s", out)
	}
}

func TestRewriteMissingRootIsError(t *testing.T) {
	var buf bytes.Buffer
	err := Rewrite(&buf, strings.NewReader(`<?xml version="1.0"?><nottv></nottv>`), 0)
	if err != ErrNoRootElement {
		t.Fatalf("Rewrite on document without <tv>: got %v, want ErrNoRootElement", err)
	}
}

func TestShiftTimestampPassesThroughMalformedValue(t *testing.T) {
	got := shiftTimestamp("not-a-timestamp", 60)
	if got != "not-a-timestamp" {
		t.Fatalf("malformed value without a space must pass through unchanged, got %q", got)
	}
}
