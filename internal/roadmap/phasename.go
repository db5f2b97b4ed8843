package roadmap

import (
	"regexp"
	"strconv"
	"strings"
)

// phaseHeadingRe matches phase header lines such as
// "### Phase 2A: Storage layer (4 PR)", "**Phase 1: Foundation**" or a bare
// "### Phase 3".
var phaseHeadingRe = regexp.MustCompile(`(?i)^\s*(#{1,6}\s+)?(?:\*\*)?\s*phase\s+(\d+)([a-z]?)\s*(?::\s*(.*?))?\s*(?:\*\*)?\s*$`)

// trailingCountRe matches the "(3 PR)" style count some headers carry.
var trailingCountRe = regexp.MustCompile(`\s*\(\s*\d+[^)]*\)\s*$`)

// matchPhaseHeading parses a phase header line.
func matchPhaseHeading(text string) (Heading, bool) {
	m := phaseHeadingRe.FindStringSubmatch(text)
	if m == nil {
		return Heading{}, false
	}
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return Heading{}, false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[4]), "**"))
	name = strings.TrimSpace(trailingCountRe.ReplaceAllString(name, ""))
	return Heading{
		Key:   PhaseKey{Number: num, Suffix: strings.ToUpper(m[3])},
		Name:  name,
		Level: strings.Count(m[1], "#"),
	}, true
}

// PhaseNames scans text for phase header lines and returns the name found for
// each phase key. The first header for a key wins; headers inside fenced code
// blocks are ignored.
func PhaseNames(text string) map[PhaseKey]string {
	names := make(map[PhaseKey]string)
	inFence := false
	for _, l := range splitLines(text) {
		if isFence(l.text) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		h, ok := matchPhaseHeading(l.text)
		if !ok || h.Name == "" {
			continue
		}
		if _, seen := names[h.Key]; !seen {
			names[h.Key] = h.Name
		}
	}
	return names
}

// EnrichPhaseNames returns a copy of phases with names taken from the phase
// headers in text. Phases without a matching header keep the placeholder
// name. The input is not modified.
func EnrichPhaseNames(phases []Phase, text string) []Phase {
	names := PhaseNames(text)
	out := ClonePhases(phases)
	for i := range out {
		if name, ok := names[out[i].Key]; ok {
			out[i].Name = name
		} else if out[i].Name == "" {
			out[i].Name = PlaceholderName(out[i].Key)
		}
	}
	return out
}
