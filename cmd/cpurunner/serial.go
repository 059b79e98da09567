package main

import (
	"regexp"
	"strings"
)

type verdict int

const (
	pending verdict = iota
	passed
	failed
)

var (
	// "Failed 3 tests" in the blargg suites, bare "Failed" in single ROMs.
	failRe = regexp.MustCompile(`(?i)failed(\s+(\d+)\s+tests?)?`)
	// test markers like "11:01"
	stageRe = regexp.MustCompile(`\b(\d{2}:\d{2})\b`)
)

// judge inspects serial output. With auto set it looks for the pass/fail
// markers; otherwise it only checks for the until substring.
func judge(out, until string, auto bool) (verdict, string) {
	lower := strings.ToLower(out)
	if auto {
		if strings.Contains(lower, "passed") {
			return passed, "Passed"
		}
		if m := failRe.FindString(out); m != "" {
			return failed, m
		}
		return pending, ""
	}
	if until != "" && strings.Contains(lower, strings.ToLower(until)) {
		return passed, until
	}
	return pending, ""
}

func lastStage(out string) string {
	mm := stageRe.FindAllString(out, -1)
	if len(mm) == 0 {
		return ""
	}
	return mm[len(mm)-1]
}

// serialLog keeps the full transcript plus a bounded tail for diagnostics.
type serialLog struct {
	all     strings.Builder
	ring    []byte
	idx     int
	fill    int
	changed bool
}

func newSerialLog(window int) *serialLog {
	if window < 256 {
		window = 256
	}
	return &serialLog{ring: make([]byte, window)}
}

func (s *serialLog) Write(p []byte) (int, error) {
	s.all.Write(p)
	for _, ch := range p {
		s.ring[s.idx] = ch
		s.idx = (s.idx + 1) % len(s.ring)
		if s.fill < len(s.ring) {
			s.fill++
		}
	}
	s.changed = true
	return len(p), nil
}

func (s *serialLog) String() string { return s.all.String() }

// tail returns the retained bytes in arrival order.
func (s *serialLog) tail() []byte {
	out := make([]byte, 0, s.fill)
	start := (s.idx - s.fill + len(s.ring)) % len(s.ring)
	for j := 0; j < s.fill; j++ {
		out = append(out, s.ring[(start+j)%len(s.ring)])
	}
	return out
}

// takeChanged reports whether new bytes arrived since the last call.
func (s *serialLog) takeChanged() bool {
	c := s.changed
	s.changed = false
	return c
}
