package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Harshitk-cp/factline/internal/domain"
)

func TestParseObject_Layers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Provenance
	}{
		{"strict", `{"fact":"A","confidence":90}`, domain.ProvenanceStrict},
		{"strict fenced", "```json\n{\"fact\":\"A\"}\n```", domain.ProvenanceStrict},
		{"relaxed prose around object", `Sure! Here it is: {"fact":"A"} hope that helps`, domain.ProvenanceRelaxed},
		{"relaxed trailing comma", `Result: {"fact":"A","confidence":90,}`, domain.ProvenanceRelaxed},
		{"relaxed smart quotes", `{“fact”:“A”}`, domain.ProvenanceRelaxed},
		{"regex broken json", `{"fact": "A", "confidence": 90 "newsworthy": true`, domain.ProvenanceRegex},
		{"default", `I cannot help with that.`, domain.ProvenanceDefault},
		{"empty", ``, domain.ProvenanceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, prov := ParseObject(tt.text, "fact", "confidence", "newsworthy")
			assert.Equal(t, tt.want, prov)
		})
	}
}

func TestParseExtraction(t *testing.T) {
	f := ParseExtraction(`{"fact":"Magnitude 6.1 earthquake strikes central Chile.","confidence":93,"newsworthy":true,"threshold_met":"disaster/pandemic/health emergency"}`)
	assert.Equal(t, "Magnitude 6.1 earthquake strikes central Chile.", f.Fact)
	assert.Equal(t, 93, f.Confidence)
	assert.True(t, f.Newsworthy)
	assert.Equal(t, domain.ProvenanceStrict, f.Provenance)
}

func TestParseExtraction_RegexDefaults(t *testing.T) {
	f := ParseExtraction(`"fact": "Senate passes \"funding\" bill." and then garbage`)
	assert.Equal(t, `Senate passes "funding" bill.`, f.Fact)
	assert.Equal(t, domain.DefaultQueueConfidence, f.Confidence, "missing confidence falls back")
	assert.True(t, f.Newsworthy, "missing newsworthy defaults to true")
	assert.Equal(t, domain.ProvenanceRegex, f.Provenance)
}

func TestParseExtraction_Unusable(t *testing.T) {
	f := ParseExtraction("no json here")
	assert.True(t, f.Skipped())
	assert.Equal(t, 0, f.Confidence)
	assert.Equal(t, domain.ProvenanceDefault, f.Provenance)
}

func TestParseExtraction_ClampsConfidence(t *testing.T) {
	assert.Equal(t, 100, ParseExtraction(`{"fact":"A","confidence":140}`).Confidence)
	assert.Equal(t, 0, ParseExtraction(`{"fact":"A","confidence":-3}`).Confidence)
	assert.Equal(t, 88, ParseExtraction(`{"fact":"A","confidence":"88%"}`).Confidence)
}

func TestParseContradiction(t *testing.T) {
	c := ParseContradiction(`{"contradiction":true,"index":2,"reason":"death toll differs","retract":false}`, 3)
	assert.True(t, c.Contradicts)
	assert.Equal(t, 1, c.Index)
	assert.Equal(t, "death toll differs", c.Reason)

	c = ParseContradiction(`{"contradiction":true,"index":9}`, 3)
	assert.Equal(t, -1, c.Index, "out of range index is unknown")

	c = ParseContradiction(`{"contradiction":true}`, 1)
	assert.Equal(t, 0, c.Index, "single candidate is implied")

	c = ParseContradiction(`{"contradiction":false,"retract":true}`, 2)
	assert.False(t, c.Retract, "no retraction without contradiction")

	c = ParseContradiction(`garbage`, 2)
	assert.False(t, c.Contradicts)
	assert.Equal(t, domain.ProvenanceDefault, c.Provenance)
}

func TestParseContradiction_Regex(t *testing.T) {
	c := ParseContradiction(`"contradiction": TRUE, "reason": "3 vs 5 dead"`, 1)
	assert.True(t, c.Contradicts)
	assert.Equal(t, "3 vs 5 dead", c.Reason)
	assert.Equal(t, domain.ProvenanceRegex, c.Provenance)
}

func TestParseDelta(t *testing.T) {
	d, ok, _ := ParseDelta(`{"new_detail":"Officials report 20,000 without power."}`)
	assert.True(t, ok)
	assert.Equal(t, "Officials report 20,000 without power.", d)

	_, ok, _ = ParseDelta(`{"new_detail":"NO_NEW_INFO"}`)
	assert.False(t, ok)

	_, ok, prov := ParseDelta(`nothing`)
	assert.False(t, ok)
	assert.Equal(t, domain.ProvenanceDefault, prov)
}

func TestParseIndexList(t *testing.T) {
	assert.Equal(t, []int{0, 2}, ParseIndexList("1,3", 3))
	assert.Equal(t, []int{1}, ParseIndexList(" 2, 2 , 7", 3))
	assert.Nil(t, ParseIndexList("NONE", 3))
	assert.Nil(t, ParseIndexList("0", 3))
}

func TestParseYesNo(t *testing.T) {
	assert.True(t, ParseYesNo("YES"))
	assert.True(t, ParseYesNo(` "yes." `))
	assert.False(t, ParseYesNo("NO"))
	assert.False(t, ParseYesNo("maybe yes"))
}
