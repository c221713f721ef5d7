package epg

import "strconv"

// ParseTimeshift parses a time-shift offset string in the forms
// "[+|-]HH", "[+|-]H:MM", or ":MM" into signed minutes. A leading '+' or '-'
// sets the sign (default positive); an empty hours component is zero hours;
// any unparsable sub-component contributes zero. If the resulting total is
// zero, ok is false and no shift applies (httpapi then rewrites with a zero
// offset, leaving start/stop unchanged).
func ParseTimeshift(s string) (minutes int, ok bool) {
	if s == "" {
		return 0, false
	}
	sign := 1
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	var hoursPart, minsPart string
	if idx := indexByte(s, ':'); idx >= 0 {
		hoursPart, minsPart = s[:idx], s[idx+1:]
	} else {
		hoursPart = s
	}

	total := sign * (parseIntOrZero(hoursPart)*60 + parseIntOrZero(minsPart))
	if total == 0 {
		return 0, false
	}
	return total, true
}

func parseIntOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
