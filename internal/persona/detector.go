// ABOUTME: Layered persona intent detection over normalized message tokens
// ABOUTME: Explicit commands beat back-references, which beat topic keywords
package persona

import (
	"regexp"
	"strings"
)

// Layer identifies which detection layer produced a match
type Layer string

const (
	LayerNone          Layer = ""
	LayerCommand       Layer = "command"
	LayerBackReference Layer = "back_reference"
	LayerTopic         Layer = "topic"
)

// Detection is the outcome of running the detector on one message. An empty
// Persona means no switch was requested, which is not the same as the
// default persona.
type Detection struct {
	Persona string `json:"persona,omitempty"`
	Layer   Layer  `json:"layer,omitempty"`
}

// Requested reports whether the message asked for a persona
func (d Detection) Requested() bool {
	return d.Persona != ""
}

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+(?:['-][a-z0-9_]+)*`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

type compiledTopic struct {
	persona    string
	keywords   []string
	suppressed []string
}

// Detector is a compiled Policy. It holds no mutable state and is safe for
// concurrent use.
type Detector struct {
	verbs      map[string]bool
	fillers    map[string]bool
	aliases    map[string]string
	maxAlias   int
	modeSuffix string
	backRefs   [][]string
	topics     []compiledTopic
}

// NewDetector compiles a policy into a detector
func NewDetector(p Policy) (*Detector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		verbs:      toSet(p.CommandVerbs),
		fillers:    toSet(p.FillerWords),
		aliases:    make(map[string]string, len(p.Aliases)),
		modeSuffix: strings.ToLower(strings.TrimSpace(p.ModeSuffix)),
	}

	for alias, id := range p.Aliases {
		tokens := tokenize(alias)
		if len(tokens) == 0 {
			continue
		}
		d.aliases[strings.Join(tokens, " ")] = id
		if len(tokens) > d.maxAlias {
			d.maxAlias = len(tokens)
		}
	}

	for _, phrase := range p.BackReferences {
		if tokens := tokenize(phrase); len(tokens) > 0 {
			d.backRefs = append(d.backRefs, tokens)
		}
	}

	for _, rule := range p.Topics {
		d.topics = append(d.topics, compiledTopic{
			persona:    rule.Persona,
			keywords:   normalizePhrases(rule.Keywords),
			suppressed: normalizePhrases(rule.SuppressedBy),
		})
	}

	return d, nil
}

var defaultDetector = mustDefaultDetector()

func mustDefaultDetector() *Detector {
	d, err := NewDetector(DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultDetector returns the detector compiled from DefaultPolicy
func DefaultDetector() *Detector {
	return defaultDetector
}

// Detect runs the default detector and returns the requested persona, or ""
// when the message carries no persona cue
func Detect(message string) string {
	return defaultDetector.Detect(message)
}

// Detect returns the requested persona, or "" when none was requested
func (d *Detector) Detect(message string) string {
	return d.DetectWithLayer(message).Persona
}

// DetectWithLayer runs each layer in priority order and stops at the first match
func (d *Detector) DetectWithLayer(message string) Detection {
	tokens := tokenize(message)
	if len(tokens) == 0 {
		return Detection{}
	}

	if id := d.matchCommand(tokens); id != "" {
		return Detection{Persona: id, Layer: LayerCommand}
	}
	if id := d.matchBackReference(tokens); id != "" {
		return Detection{Persona: id, Layer: LayerBackReference}
	}
	if id := d.matchTopic(tokens); id != "" {
		return Detection{Persona: id, Layer: LayerTopic}
	}
	return Detection{}
}

// matchCommand finds "<verb> [fillers...] <alias>" or "<alias> mode"
func (d *Detector) matchCommand(tokens []string) string {
	for i, tok := range tokens {
		if !d.verbs[tok] {
			continue
		}
		j := i + 1
		for j < len(tokens) && d.fillers[tokens[j]] {
			j++
		}
		if id, _ := d.aliasAt(tokens, j); id != "" {
			return id
		}
	}

	if d.modeSuffix == "" {
		return ""
	}
	for i := range tokens {
		id, n := d.aliasAt(tokens, i)
		if id != "" && i+n < len(tokens) && tokens[i+n] == d.modeSuffix {
			return id
		}
	}
	return ""
}

// matchBackReference finds "back to" style phrases and returns the first alias after them
func (d *Detector) matchBackReference(tokens []string) string {
	for _, ref := range d.backRefs {
		for i := 0; i+len(ref) <= len(tokens); i++ {
			if !equalTokens(tokens[i:i+len(ref)], ref) {
				continue
			}
			for j := i + len(ref); j < len(tokens); j++ {
				if id, _ := d.aliasAt(tokens, j); id != "" {
					return id
				}
			}
		}
	}
	return ""
}

func (d *Detector) matchTopic(tokens []string) string {
	padded := " " + strings.Join(tokens, " ") + " "
	for _, rule := range d.topics {
		if !containsAny(padded, rule.keywords) {
			continue
		}
		if containsAny(padded, rule.suppressed) {
			continue
		}
		return rule.persona
	}
	return ""
}

// aliasAt returns the longest alias starting at tokens[i] and its token length
func (d *Detector) aliasAt(tokens []string, i int) (string, int) {
	if i >= len(tokens) {
		return "", 0
	}
	for n := d.maxAlias; n >= 1; n-- {
		if i+n > len(tokens) {
			continue
		}
		if id, ok := d.aliases[strings.Join(tokens[i:i+n], " ")]; ok {
			return id, n
		}
	}
	return "", 0
}

func containsAny(padded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, p) {
			return true
		}
	}
	return false
}

// normalizePhrases tokenizes each phrase and pads it with spaces so that
// substring checks against a padded token string only match whole tokens
func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		tokens := tokenize(p)
		if len(tokens) == 0 {
			continue
		}
		out = append(out, " "+strings.Join(tokens, " ")+" ")
	}
	return out
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}
