package fabrica

import (
	"strings"
	"sync"
)

// passiveSuffixes mark a verb as the reverse form of a relationship.
var passiveSuffixes = []string{"By", "To", "Of", "_of"}

// IsPassiveVerb reports whether the verb is a passive/reverse relationship
// form such as "managedBy", "reportsTo" or "child_of".
func IsPassiveVerb(verb string) bool {
	if verb == "" {
		return false
	}
	for _, suffix := range passiveSuffixes {
		if strings.HasSuffix(verb, suffix) {
			return true
		}
	}
	return false
}

// VerbLexicon maps active relationship verbs to their passive/reverse forms
// and back, and derives verbs from common field names. The tables are carried
// per lexicon so independent engines can register verbs without cross-talk;
// registrations are effective immediately for all subsequent calls through
// the same lexicon.
type VerbLexicon struct {
	mu            sync.RWMutex
	forward       map[string]string
	reverse       map[string]string
	bidirectional map[string]string
	fieldVerbs    map[string]string
}

// NewVerbLexicon returns a lexicon seeded with the default verb tables.
func NewVerbLexicon() *VerbLexicon {
	lex := &VerbLexicon{
		forward:       make(map[string]string),
		reverse:       make(map[string]string),
		bidirectional: make(map[string]string),
		fieldVerbs:    make(map[string]string),
	}

	pairs := map[string]string{
		"manages":    "managedBy",
		"owns":       "ownedBy",
		"creates":    "createdBy",
		"writes":     "writtenBy",
		"authors":    "authoredBy",
		"reviews":    "reviewedBy",
		"approves":   "approvedBy",
		"employs":    "employedBy",
		"teaches":    "taughtBy",
		"mentors":    "mentoredBy",
		"supervises": "supervisedBy",
		"leads":      "ledBy",
		"publishes":  "publishedBy",
		"maintains":  "maintainedBy",
		"funds":      "fundedBy",
		"hosts":      "hostedBy",
		"edits":      "editedBy",
		"invites":    "invitedBy",
		"assigns":    "assignedTo",
		"reports":    "reportsTo",
		"belongs":    "belongsTo",
	}
	for fwd, rev := range pairs {
		lex.forward[fwd] = rev
		lex.reverse[rev] = fwd
	}

	lex.bidirectional["parent_of"] = "child_of"
	lex.bidirectional["child_of"] = "parent_of"
	lex.bidirectional["predecessor_of"] = "successor_of"
	lex.bidirectional["successor_of"] = "predecessor_of"
	lex.bidirectional["relatedTo"] = "relatedTo"
	lex.bidirectional["linkedTo"] = "linkedTo"
	lex.bidirectional["marriedTo"] = "marriedTo"

	lex.fieldVerbs = map[string]string{
		"manager":    "manages",
		"owner":      "owns",
		"creator":    "creates",
		"writer":     "writes",
		"author":     "authors",
		"reviewer":   "reviews",
		"approver":   "approves",
		"employer":   "employs",
		"teacher":    "teaches",
		"mentor":     "mentors",
		"supervisor": "supervises",
		"lead":       "leads",
		"publisher":  "publishes",
		"maintainer": "maintains",
		"editor":     "edits",
		"host":       "hosts",
	}

	return lex
}

// DeriveReverseVerb maps an active relationship verb to its passive/reverse
// form. Known reverse forms map back to their active form, making the
// function idempotent across a round trip. Unknown verbs fall through to
// lexical rules; the result is always a non-empty derivation of the input.
func (l *VerbLexicon) DeriveReverseVerb(verb string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if rev, ok := l.bidirectional[verb]; ok {
		return rev
	}
	if rev, ok := l.forward[verb]; ok {
		return rev
	}
	if fwd, ok := l.reverse[verb]; ok {
		return fwd
	}
	if strings.HasSuffix(verb, "By") {
		return strings.TrimSuffix(verb, "By")
	}
	// "creates" -> "createdBy"; verbs without the "es" ending keep their
	// stem: "sponsors" -> "sponsorsBy".
	if strings.HasSuffix(verb, "es") && len(verb) > 2 {
		return strings.TrimSuffix(verb, "s") + "dBy"
	}
	return verb + "By"
}

// FieldNameToVerb derives a relationship verb from a common field name, e.g.
// "manager" -> "manages". Unmapped names are returned unchanged.
func (l *VerbLexicon) FieldNameToVerb(fieldName string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if verb, ok := l.fieldVerbs[fieldName]; ok {
		return verb
	}
	return fieldName
}

// RegisterVerbPair registers a forward verb and its reverse form.
func (l *VerbLexicon) RegisterVerbPair(forward, reverse string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.forward[forward] = reverse
	l.reverse[reverse] = forward
}

// RegisterBidirectionalPair registers a symmetric verb pair. Registering a
// verb with itself makes it reflexive.
func (l *VerbLexicon) RegisterBidirectionalPair(a, b string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bidirectional[a] = b
	l.bidirectional[b] = a
}

// RegisterFieldVerb registers a field-name-to-verb mapping.
func (l *VerbLexicon) RegisterFieldVerb(field, verb string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fieldVerbs[field] = verb
}

// ForwardVerbs returns a snapshot of the registered forward verbs.
func (l *VerbLexicon) ForwardVerbs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	verbs := make([]string, 0, len(l.forward))
	for verb := range l.forward {
		verbs = append(verbs, verb)
	}
	return verbs
}
