package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var personalTitles = map[string]bool{
	"president": true, "senator": true, "sen": true, "judge": true,
	"justice": true, "secretary": true, "governor": true, "gov": true,
	"mayor": true, "representative": true, "rep": true, "director": true,
	"minister": true, "chancellor": true, "king": true, "queen": true,
	"prince": true, "princess": true, "pope": true, "ceo": true, "dr": true,
	"speaker": true, "ambassador": true, "commissioner": true, "attorney": true,
}

// Titles that only name a person in front of one of the listed words.
// "General Motors" and "Prime Video" are companies.
var compoundTitles = map[string][]string{
	"prime": {"minister"},
	"chief": {"justice", "executive", "minister", "inspector"},
	"vice":  {"president", "chancellor", "admiral", "premier"},
}

var articles = map[string]bool{"the": true, "a": true, "an": true}

var irregularPlural = map[string]string{
	"is": "are", "has": "have", "was": "were", "does": "do", "says": "say",
}

// Words ending in s that are not third-person verbs.
var notVerbs = map[string]bool{
	"always": true, "thus": true, "this": true, "its": true, "his": true,
	"perhaps": true, "across": true, "less": true, "plus": true, "unless": true,
	"us": true, "as": true, "yes": true, "news": true,
}

func bareWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }))
}

func capitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

// subjectLen is the length of the noun phrase opening words: a run of
// capitalized words, optionally after a leading article. An article followed
// by a lowercase word takes just that one word ("The earthquake").
func subjectLen(words []string) int {
	i := 0
	if len(words) > 0 && articles[bareWord(words[0])] {
		i = 1
		if i < len(words) && !capitalized(words[i]) {
			return i + 1
		}
	}
	for i < len(words) && capitalized(words[i]) {
		i++
	}
	return i
}

func isPersonal(subject []string) bool {
	first := bareWord(subject[0])
	if personalTitles[first] {
		return true
	}
	next, ok := compoundTitles[first]
	if !ok || len(subject) < 2 {
		return false
	}
	second := bareWord(subject[1])
	for _, w := range next {
		if w == second {
			return true
		}
	}
	return false
}

// SubstitutePronoun replaces a restated subject at the start of detail with
// "They" or "It". The replaced run is the leading words detail shares with
// existing, cut at the end of the opening noun phrase so a shared verb
// survives. It must start with a capitalized word and cannot be a bare
// article.
func SubstitutePronoun(detail, existing string) string {
	dw := strings.Fields(detail)
	ew := strings.Fields(existing)

	n := 0
	for n < len(dw) && n < len(ew) && bareWord(dw[n]) != "" && bareWord(dw[n]) == bareWord(ew[n]) {
		n++
	}
	if limit := subjectLen(dw); n > limit {
		n = limit
	}
	// Leave at least one word after the pronoun.
	if n >= len(dw) {
		n = len(dw) - 1
	}
	if n <= 0 {
		return detail
	}
	first := []rune(dw[0])
	if !unicode.IsUpper(first[0]) {
		return detail
	}
	if n == 1 && articles[bareWord(dw[0])] {
		return detail
	}

	pronoun := "It"
	if isPersonal(dw[:n]) {
		pronoun = "They"
	}
	rest := dw[n:]
	if pronoun == "They" {
		rest[0] = pluralVerb(rest[0])
	}
	return pronoun + " " + strings.Join(rest, " ")
}

// pluralVerb turns a third-person singular present verb into its plural.
func pluralVerb(word string) string {
	w := strings.TrimRightFunc(word, unicode.IsPunct)
	return singularToPlural(w) + word[len(w):]
}

func singularToPlural(w string) string {
	if w == "" {
		return w
	}
	for _, r := range w {
		if !unicode.IsLower(r) {
			return w
		}
	}
	if p, ok := irregularPlural[w]; ok {
		return p
	}
	if notVerbs[w] || len(w) <= 3 {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies"):
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "zes"):
		return strings.TrimSuffix(w, "es")
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "s"):
		return strings.TrimSuffix(w, "s")
	}
	return w
}
