package hierarchy

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultDelimiter = " > "

// LevelRule forces MinLevel for any department whose description contains
// Pattern, compared without case or accents.
type LevelRule struct {
	Pattern  string
	MinLevel int
}

// Calculator maps hierarchy paths to levels. It is pure and safe for
// concurrent use.
type Calculator struct {
	delimiter string
	rules     []LevelRule
}

func NewCalculator(delimiter string, rules []LevelRule) *Calculator {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	folded := make([]LevelRule, 0, len(rules))
	for _, rule := range rules {
		pattern := Fold(rule.Pattern)
		if pattern == "" {
			continue
		}
		folded = append(folded, LevelRule{Pattern: pattern, MinLevel: rule.MinLevel})
	}
	return &Calculator{delimiter: delimiter, rules: folded}
}

func (c *Calculator) Delimiter() string { return c.delimiter }

func (c *Calculator) Rules() []LevelRule {
	out := make([]LevelRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Segments splits path on the delimiter, dropping blank segments.
func (c *Calculator) Segments(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	parts := strings.Split(path, strings.TrimSpace(c.delimiter))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Depth is the raw segment count of path.
func (c *Calculator) Depth(path string) int {
	return len(c.Segments(path))
}

// Level is the segment count of path with the override rules applied to its
// deepest segment.
func (c *Calculator) Level(path string) int {
	return c.LevelFor(path, "")
}

// LevelFor is Level with description also checked against the rules.
func (c *Calculator) LevelFor(path, description string) int {
	segments := c.Segments(path)
	level := len(segments)
	candidates := make([]string, 0, 2)
	if description != "" {
		candidates = append(candidates, Fold(description))
	}
	if len(segments) > 0 {
		candidates = append(candidates, Fold(segments[len(segments)-1]))
	}
	for _, rule := range c.rules {
		if rule.MinLevel <= level {
			continue
		}
		for _, candidate := range candidates {
			if strings.Contains(candidate, rule.Pattern) {
				level = rule.MinLevel
				break
			}
		}
	}
	return level
}

// ContainsSegment reports whether segment is one of path's segments.
func (c *Calculator) ContainsSegment(path, segment string) bool {
	target := Fold(segment)
	if target == "" {
		return false
	}
	for _, part := range c.Segments(path) {
		if Fold(part) == target {
			return true
		}
	}
	return false
}

// Fold lower-cases s and strips diacritics so "GERÊNCIA" matches "gerencia".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.Join(strings.Fields(out), " ")
}
