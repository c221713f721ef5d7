// Package epg implements the EPG streaming rewriter: a pull parser / push
// serializer pair that time-shifts start/stop attributes on XMLTV programme
// elements and emits a gzip-compressed result. Grounded on
// original_source/src/api/xmltv_api.rs (time_correct, parse_timeshift,
// serve_epg_with_timeshift) and the teacher's internal/tuner/xmltv.go
// encoding/xml Token()/EncodeToken() streaming idiom.
package epg

import (
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const xmltvTimeLayout = "20060102150405"

// ErrNoRootElement is returned when the source never produces a <tv> root.
var ErrNoRootElement = errors.New("epg: xmltv root <tv> not found")

// Rewrite reads the XMLTV document src, time-shifts every programme
// element's start/stop attributes by offsetMinutes, and writes a
// gzip-compressed result to dst. Every other event — text, comments,
// processing instructions, non-programme elements — is forwarded verbatim,
// attribute order preserved. A parse error on any single event aborts the
// transform: whatever has already been written to dst stays written, and
// the error is returned.
func Rewrite(dst io.Writer, src io.Reader, offsetMinutes int) error {
	gz := gzip.NewWriter(dst)
	dec := xml.NewDecoder(src)
	enc := xml.NewEncoder(gz)

	sawRoot := false
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("epg: decode token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tv" {
				sawRoot = true
			}
			if t.Name.Local == "programme" {
				shifted := shiftProgramme(t, offsetMinutes)
				if err := enc.EncodeToken(shifted); err != nil {
					return fmt.Errorf("epg: encode programme start: %w", err)
				}
				continue
			}
			if err := enc.EncodeToken(t); err != nil {
				return fmt.Errorf("epg: encode token: %w", err)
			}
		default:
			if err := enc.EncodeToken(tok); err != nil {
				return fmt.Errorf("epg: encode token: %w", err)
			}
		}
	}
	if !sawRoot {
		return ErrNoRootElement
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("epg: flush encoder: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("epg: close gzip stream: %w", err)
	}
	return nil
}

// shiftProgramme rebuilds start's attribute list, replacing start/stop
// values with their time-shifted form and leaving every other attribute
// (and the overall order) untouched.
func shiftProgramme(start xml.StartElement, offsetMinutes int) xml.StartElement {
	attrs := make([]xml.Attr, len(start.Attr))
	for i, a := range start.Attr {
		if a.Name.Local == "start" || a.Name.Local == "stop" {
			a.Value = shiftTimestamp(a.Value, offsetMinutes)
		}
		attrs[i] = a
	}
	start.Attr = attrs
	return start
}

// shiftTimestamp shifts an XMLTV "YYYYMMDDhhmmss <±ZZZZ>" value by
// offsetMinutes. The value is split once on the first space; if that does
// not yield exactly two parts, it is returned unchanged. The local
// component is parsed as YYYYMMDDhhmmss, shifted, reformatted in the same
// layout, and rejoined with the original timezone token untouched.
func shiftTimestamp(value string, offsetMinutes int) string {
	idx := strings.IndexByte(value, ' ')
	if idx < 0 {
		return value
	}
	local, tz := value[:idx], value[idx+1:]

	t, err := time.Parse(xmltvTimeLayout, local)
	if err != nil {
		return value
	}
	shifted := t.Add(time.Duration(offsetMinutes) * time.Minute)
	return shifted.Format(xmltvTimeLayout) + " " + tz
}
