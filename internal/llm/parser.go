package llm

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/factline/internal/domain"
)

var (
	fencedObjectRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	digitsRe        = regexp.MustCompile(`\d+`)
)

// ParseObject decodes an oracle answer that should be a JSON object. It falls
// through four layers and reports which one produced the result:
// strict (the whole answer, fences stripped), relaxed (an embedded or fenced
// object, trailing commas and smart quotes repaired), regex (the named keys
// scraped individually) and default (nil). It never fails.
func ParseObject(text string, keys ...string) (map[string]any, domain.Provenance) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ProvenanceDefault
	}

	if m, ok := decodeObject(stripFences(text)); ok {
		return m, domain.ProvenanceStrict
	}

	for _, candidate := range relaxedCandidates(text) {
		if m, ok := decodeObject(candidate); ok {
			return m, domain.ProvenanceRelaxed
		}
		if m, ok := decodeObject(repair(candidate)); ok {
			return m, domain.ProvenanceRelaxed
		}
	}

	if m := scrapeKeys(text, keys); len(m) > 0 {
		return m, domain.ProvenanceRegex
	}
	return nil, domain.ProvenanceDefault
}

func stripFences(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func relaxedCandidates(text string) []string {
	var out []string
	if m := fencedObjectRe.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		out = append(out, text[start:end+1])
	}
	return out
}

func repair(s string) string {
	s = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'").Replace(s)
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

func scrapeKeys(text string, keys []string) map[string]any {
	m := make(map[string]any)
	for _, key := range keys {
		k := regexp.QuoteMeta(key)
		if sm := regexp.MustCompile(`(?i)"` + k + `"\s*:\s*(true|false)`).FindStringSubmatch(text); sm != nil {
			m[key] = strings.EqualFold(sm[1], "true")
			continue
		}
		if sm := regexp.MustCompile(`"` + k + `"\s*:\s*(-?\d+(?:\.\d+)?)`).FindStringSubmatch(text); sm != nil {
			if f, err := strconv.ParseFloat(sm[1], 64); err == nil {
				m[key] = f
			}
			continue
		}
		if sm := regexp.MustCompile(`"` + k + `"\s*:\s*"((?:[^"\\]|\\.)*)"`).FindStringSubmatch(text); sm != nil {
			m[key] = strings.ReplaceAll(sm[1], `\"`, `"`)
		}
	}
	return m
}

func getString(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	return strings.TrimSpace(v), ok
}

func getBool(m map[string]any, key string) (bool, bool) {
	switch v := m[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	return false, false
}

func getInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(math.Round(v)), true
	case string:
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		return n, err == nil
	}
	return 0, false
}

// ParseExtraction turns an extraction answer into a fact. Unusable answers
// yield the SKIP sentinel with zero confidence.
func ParseExtraction(text string) domain.ExtractedFact {
	m, prov := ParseObject(text, "fact", "confidence", "newsworthy", "threshold_met")
	fact, ok := getString(m, "fact")
	if !ok || fact == "" {
		return domain.ExtractedFact{Fact: domain.SkipFact, Provenance: prov}
	}

	confidence, ok := getInt(m, "confidence")
	if !ok {
		confidence = domain.DefaultQueueConfidence
	}
	confidence = max(0, min(100, confidence))

	newsworthy, ok := getBool(m, "newsworthy")
	if !ok {
		newsworthy = true
	}
	threshold, _ := getString(m, "threshold_met")

	return domain.ExtractedFact{
		Fact:         fact,
		Confidence:   confidence,
		Newsworthy:   newsworthy,
		ThresholdMet: threshold,
		Provenance:   prov,
	}
}

// ParseContradiction decodes a contradiction verdict over a list of n facts.
func ParseContradiction(text string, n int) domain.Contradiction {
	m, prov := ParseObject(text, "contradiction", "index", "reason", "retract")
	c := domain.Contradiction{Index: -1, Provenance: prov}
	if m == nil {
		return c
	}
	c.Contradicts, _ = getBool(m, "contradiction")
	c.Reason, _ = getString(m, "reason")
	c.Retract, _ = getBool(m, "retract")
	if idx, ok := getInt(m, "index"); ok && idx >= 1 && idx <= n {
		c.Index = idx - 1
	}
	if c.Contradicts && c.Index < 0 && n == 1 {
		c.Index = 0
	}
	if !c.Contradicts {
		c.Retract = false
	}
	return c
}

// ParseDelta decodes a new-detail answer. ok is false when there is nothing new.
func ParseDelta(text string) (string, bool, domain.Provenance) {
	m, prov := ParseObject(text, "new_detail")
	detail, _ := getString(m, "new_detail")
	if detail == "" || strings.EqualFold(detail, noNewInfo) {
		return "", false, prov
	}
	return detail, true, prov
}

// ParseIndexList reads a "1,3,5" / "NONE" answer into 0-based indices below n.
// Out-of-range and repeated numbers are dropped.
func ParseIndexList(text string, n int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range digitsRe.FindAllString(text, -1) {
		idx, err := strconv.Atoi(d)
		if err != nil || idx < 1 || idx > n || seen[idx-1] {
			continue
		}
		seen[idx-1] = true
		out = append(out, idx-1)
	}
	return out
}

// ParseYesNo reads a YES/NO answer; anything but a leading YES is NO.
func ParseYesNo(text string) bool {
	t := strings.ToUpper(strings.Trim(strings.TrimSpace(text), `"'.`))
	return strings.HasPrefix(t, "YES")
}
