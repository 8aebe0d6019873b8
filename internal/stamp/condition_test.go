package stamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractConditionFields(t *testing.T) {
	text := "Erhaltung: Kabinett; Zähnung: vollständig. Stempel: sauberer Einkreisstempel. Mängel keine"

	fields, ok := ExtractConditionFields(text)
	assert.True(t, ok)
	assert.Equal(t, []ConditionField{
		{Label: "Zähnung", Value: "vollständig"},
		{Label: "Stempel", Value: "sauberer Einkreisstempel"},
		{Label: "Erhaltung", Value: "Kabinett"},
		{Label: "Mängel", Value: "keine"},
	}, fields, "fields follow label order, not text order")
}

func TestExtractConditionFields_CaseInsensitive(t *testing.T) {
	fields, ok := ExtractConditionFields("ZENTRIERUNG: leicht nach links verschoben")
	assert.True(t, ok)
	assert.Equal(t, []ConditionField{{Label: "Zentrierung", Value: "leicht nach links verschoben"}}, fields)
}

func TestExtractConditionFields_NoMatch(t *testing.T) {
	fields, ok := ExtractConditionFields("Sehr schöne, postfrische Marke.")
	assert.False(t, ok)
	assert.Nil(t, fields)

	fields, ok = ExtractConditionFields("")
	assert.False(t, ok)
	assert.Nil(t, fields)
}

func TestExtractConditionFields_LabelInsideWord(t *testing.T) {
	_, ok := ExtractConditionFields("Sauber gestempelt, gute Stempelqualität.")
	assert.False(t, ok)
}

func TestExtractConditionFields_Idempotent(t *testing.T) {
	text := "Status: MNH. Zähnung: komplett; Mängel: Falz"
	first, ok1 := ExtractConditionFields(text)
	second, ok2 := ExtractConditionFields(text)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}
