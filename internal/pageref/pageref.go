// Package pageref interprets the free-form page references stored on notes.
package pageref

import (
	"regexp"
	"strconv"
)

var refRe = regexp.MustCompile(`^\s*(\d+)\s*(?:-\s*(\d+))?\s*$`)

// Ref is a parsed page reference: a single page or an inclusive range.
// A single page has Start == End.
type Ref struct {
	Start int
	End   int
}

// Parse interprets a reference of the form "12" or "12-14". Anything
// else (prose like "ch. 3", empty strings, reversed ranges) reports
// ok == false; such references are kept verbatim but never ordered.
func Parse(s string) (Ref, bool) {
	m := refRe.FindStringSubmatch(s)
	if m == nil {
		return Ref{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Ref{}, false
	}
	end := start
	if m[2] != "" {
		end, err = strconv.Atoi(m[2])
		if err != nil || end < start {
			return Ref{}, false
		}
	}
	return Ref{Start: start, End: end}, true
}

// Compare orders two optional references for display. Parseable
// references sort by start page, then end page, ahead of everything
// else. Unparseable pairs compare equal so a stable sort preserves
// the caller's ordering for them.
func Compare(a, b *string) int {
	ra, aok := parsePtr(a)
	rb, bok := parsePtr(b)
	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case !aok && !bok:
		return 0
	}
	if ra.Start != rb.Start {
		if ra.Start < rb.Start {
			return -1
		}
		return 1
	}
	switch {
	case ra.End < rb.End:
		return -1
	case ra.End > rb.End:
		return 1
	}
	return 0
}

func parsePtr(s *string) (Ref, bool) {
	if s == nil {
		return Ref{}, false
	}
	return Parse(*s)
}
