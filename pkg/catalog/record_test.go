package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	assert.Equal(t,
		[]string{"Stan Lee", "Jack Kirby", "Steve Ditko"},
		Union([]string{"Stan Lee", "Jack Kirby"}, []string{"Jack Kirby", "Steve Ditko"}))

	// blanks never enter the result
	assert.Equal(t, []string{"a"}, Union([]string{"a", " "}, []string{"", "a"}))

	assert.Empty(t, Union(nil, nil))
}

func TestNewRecordDefaultsIdentifiers(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	rec := NewRecord(ParsedRecord{ExternalID: "001", Title: "Watchmen"}, now)
	assert.Equal(t, []string{MissingIdentifier}, rec.Identifiers)
	assert.True(t, rec.HasMissingIdentifier())
	assert.Equal(t, now, rec.CreatedAt)

	rec = NewRecord(ParsedRecord{ExternalID: "002", Identifiers: []string{"9780930289232"}}, now)
	assert.Equal(t, []string{"9780930289232"}, rec.Identifiers)
	assert.False(t, rec.HasMissingIdentifier())
}

func TestMergeUnionsMultiValuedFields(t *testing.T) {
	now := time.Now()
	rec := NewRecord(ParsedRecord{
		ExternalID: "001",
		Title:      "Watchmen",
		Authors:    []string{"Alan Moore"},
		Genres:     []string{"Drama"},
	}, now)

	rec.Merge(ParsedRecord{
		ExternalID: "001",
		Authors:    []string{"Alan Moore", "Dave Gibbons"},
		Genres:     []string{"Science fiction"},
	})

	assert.Equal(t, []string{"Alan Moore", "Dave Gibbons"}, rec.Authors)
	assert.Equal(t, []string{"Drama", "Science fiction"}, rec.Genres)
	assert.Equal(t, now, rec.CreatedAt)
}

func TestMergeKeepsTitleOnEmptyIncoming(t *testing.T) {
	rec := NewRecord(ParsedRecord{ExternalID: "001", Title: "Watchmen"}, time.Now())

	rec.Merge(ParsedRecord{ExternalID: "001", Title: "  "})
	assert.Equal(t, "Watchmen", rec.Title)

	rec.Merge(ParsedRecord{ExternalID: "001", Title: "Watchmen: Absolute Edition"})
	assert.Equal(t, "Watchmen: Absolute Edition", rec.Title)
}

func TestMergeOverwritesIdentifiers(t *testing.T) {
	rec := NewRecord(ParsedRecord{
		ExternalID:  "001",
		Identifiers: []string{"9780930289232", "0930289234"},
	}, time.Now())

	rec.Merge(ParsedRecord{ExternalID: "001", Identifiers: []string{"9781779501127"}})
	assert.Equal(t, []string{"9781779501127"}, rec.Identifiers)

	// a later row with no identifiers resets to the sentinel
	rec.Merge(ParsedRecord{ExternalID: "001"})
	assert.Equal(t, []string{MissingIdentifier}, rec.Identifiers)
}

func TestSentinelNeverCoexistsWithRealIdentifiers(t *testing.T) {
	ids := identifiersOrMissing([]string{MissingIdentifier, "9780930289232"})
	assert.Equal(t, []string{"9780930289232"}, ids)

	ids = identifiersOrMissing([]string{MissingIdentifier})
	assert.Equal(t, []string{MissingIdentifier}, ids)
}

func TestMergeExtraFieldsShallow(t *testing.T) {
	rec := NewRecord(ParsedRecord{
		ExternalID: "001",
		ExtraFields: map[string]FieldValue{
			"publisher": ScalarField("DC Comics"),
			"notes":     ScalarField("first printing"),
		},
	}, time.Now())

	rec.Merge(ParsedRecord{
		ExternalID: "001",
		ExtraFields: map[string]FieldValue{
			"publisher": ScalarField("DC"),
			"topics":    ListField([]string{"Superheroes", "Mystery"}),
		},
	})

	assert.Equal(t, ScalarField("DC"), rec.ExtraFields["publisher"])
	assert.Equal(t, ScalarField("first printing"), rec.ExtraFields["notes"])
	assert.Equal(t, ListField([]string{"Superheroes", "Mystery"}), rec.ExtraFields["topics"])
}

func TestCloneIsIndependent(t *testing.T) {
	rec := NewRecord(ParsedRecord{
		ExternalID: "001",
		Authors:    []string{"Alan Moore"},
		ExtraFields: map[string]FieldValue{
			"topics": ListField([]string{"Mystery"}),
		},
	}, time.Now())

	cp := rec.Clone()
	cp.Authors[0] = "changed"
	cp.ExtraFields["topics"].List[0] = "changed"

	assert.Equal(t, "Alan Moore", rec.Authors[0])
	assert.Equal(t, "Mystery", rec.ExtraFields["topics"].List[0])
}

func TestMultiValueFields(t *testing.T) {
	rec := Record{ExtraFields: map[string]FieldValue{
		"topics":    ListField([]string{"Superheroes", "Mystery"}),
		"publisher": ScalarField("DC Comics"),
		"notes":     ScalarField("reprint; signed"),
		"blank":     ScalarField("  "),
	}}

	fields := rec.MultiValueFields()
	assert.Equal(t, []string{"Superheroes", "Mystery"}, fields["topics"])
	assert.Equal(t, []string{"DC Comics"}, fields["publisher"])
	assert.Equal(t, []string{"reprint", "signed"}, fields["notes"])
	assert.NotContains(t, fields, "blank")
}

func TestFieldValueJSON(t *testing.T) {
	data, err := json.Marshal(map[string]FieldValue{
		"publisher": ScalarField("DC Comics"),
		"topics":    ListField([]string{"Superheroes"}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"publisher":"DC Comics","topics":["Superheroes"]}`, string(data))

	var decoded map[string]FieldValue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ScalarField("DC Comics"), decoded["publisher"])
	assert.Equal(t, ListField([]string{"Superheroes"}), decoded["topics"])
}
