package internal

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/lychee-technology/fabrica"
)

// placeholderSynthesizer produces deterministic, non-AI values for scalar
// fields. The same inputs always yield the same output, which keeps
// disabled-backend runs reproducible.
type placeholderSynthesizer struct {
	maxLen int
}

// NewPlaceholderSynthesizer returns the built-in deterministic synthesizer.
// maxLen caps every produced value; hints carrying an explicit "(N chars)"
// bound tighten the cap further.
func NewPlaceholderSynthesizer(maxLen int) fabrica.Synthesizer {
	if maxLen <= 0 {
		maxLen = 500
	}
	return &placeholderSynthesizer{maxLen: maxLen}
}

var (
	sampleFirstNames = []string{"Avery", "Jordan", "Morgan", "Riley", "Casey", "Quinn", "Rowan", "Emerson"}
	sampleLastNames  = []string{"Reyes", "Okafor", "Lindqvist", "Tanaka", "Moreau", "Castillo", "Novak", "Adeyemi"}
	sampleWords      = []string{"atlas", "harbor", "summit", "meridian", "cobalt", "lattice", "western", "prairie"}
	sampleAdjectives = []string{"Brisk", "Quiet", "Amber", "Steady", "Northern", "Vivid", "Plain", "Early"}
	sampleDates      = []string{"2023-02-11", "2023-07-30", "2024-01-05", "2024-06-18", "2024-11-02", "2025-03-22"}
	sampleDomains    = []string{"example.com", "example.org", "example.net"}
)

func (s *placeholderSynthesizer) Synthesize(field, typeName, contextStr, hint string) string {
	seed := hashSeed(field, typeName, contextStr, hint)
	value := s.valueFor(strings.ToLower(field), field, typeName, seed)

	if bound, ok := charBound(hint); ok {
		value = truncate(value, bound)
	}
	return truncate(value, s.maxLen)
}

func (s *placeholderSynthesizer) valueFor(lower, field, typeName string, seed uint64) string {
	pick := func(list []string, salt uint64) string {
		return list[(seed+salt)%uint64(len(list))]
	}

	switch {
	case strings.Contains(lower, "email"):
		return fmt.Sprintf("%s.%s@%s",
			strings.ToLower(pick(sampleFirstNames, 1)),
			strings.ToLower(pick(sampleLastNames, 2)),
			pick(sampleDomains, 3))
	case strings.Contains(lower, "url") || strings.Contains(lower, "website") || strings.Contains(lower, "link"):
		return fmt.Sprintf("https://%s/%s", pick(sampleDomains, 1), pick(sampleWords, 2))
	case strings.Contains(lower, "phone"):
		return fmt.Sprintf("+1-555-%03d-%04d", seed%900+100, seed%9000+1000)
	case strings.Contains(lower, "date") || strings.Contains(lower, "time"):
		return pick(sampleDates, 1)
	case strings.Contains(lower, "name") || strings.Contains(lower, "title"):
		if typeName != "" && !strings.Contains(lower, "first") && !strings.Contains(lower, "last") {
			return fmt.Sprintf("%s %s", pick(sampleAdjectives, 1), pick(sampleWords, 2))
		}
		return fmt.Sprintf("%s %s", pick(sampleFirstNames, 1), pick(sampleLastNames, 2))
	case strings.Contains(lower, "id") && len(lower) <= 6, strings.Contains(lower, "code"), strings.Contains(lower, "sku"):
		return fmt.Sprintf("%s-%04d", strings.ToUpper(pick(sampleWords, 1)[:3]), seed%10000)
	case strings.Contains(lower, "description") || strings.Contains(lower, "summary") || strings.Contains(lower, "bio") || strings.Contains(lower, "notes"):
		return fmt.Sprintf("%s %s for %s", pick(sampleAdjectives, 1),
			strings.ToLower(humanize(field)), humanize(typeName))
	}
	return fmt.Sprintf("%s %s", pick(sampleAdjectives, 1), strings.ToLower(humanize(field)))
}

// humanize renders an identifier as words: "firstName" -> "First name".
func humanize(name string) string {
	if name == "" {
		return ""
	}
	return inflect.Humanize(inflect.Underscore(name))
}

func hashSeed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
