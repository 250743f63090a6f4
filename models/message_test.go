package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	var numeric, text ID
	require.NoError(t, json.Unmarshal([]byte(`42`), &numeric))
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &text))

	assert.Equal(t, NumericID(42), numeric)
	assert.Equal(t, StringID("42"), text)
	assert.True(t, numeric.Equal(text), "ids with the same text must compare equal")
	assert.Equal(t, "42", numeric.String())

	raw, err := json.Marshal(numeric)
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(raw))

	raw, err = json.Marshal(text)
	require.NoError(t, err)
	assert.JSONEq(t, `"42"`, string(raw))
}

func TestParseIDPrefersNumericForm(t *testing.T) {
	assert.Equal(t, NumericID(7), ParseID("7"))
	assert.Equal(t, StringID("6f1c-aa"), ParseID("6f1c-aa"))
	assert.True(t, ParseID("").IsZero())
}

func TestRecordsWrapsSingleObject(t *testing.T) {
	var records Records
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"message":"racecar","isPalindrome":true,"createdAt":"2024-01-01T00:00:00Z"}`), &records))
	require.Len(t, records, 1)
	assert.Equal(t, NumericID(1), records[0].ID)
	assert.Equal(t, "racecar", records[0].Text)
	assert.True(t, records[0].IsPalindrome)
	assert.Nil(t, records[0].DetailsVisible)
}

func TestRecordsDecodesArray(t *testing.T) {
	var records Records
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a","message":"x","details":true},{"id":"b","message":"y"}]`), &records))
	require.Len(t, records, 2)
	require.NotNil(t, records[0].DetailsVisible)
	assert.True(t, *records[0].DetailsVisible)
	assert.Nil(t, records[1].DetailsVisible)
}

func TestRecordsDecodesNullAsEmpty(t *testing.T) {
	var records Records
	require.NoError(t, json.Unmarshal([]byte(`null`), &records))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCloneDoesNotShareDetailsFlag(t *testing.T) {
	visible := true
	original := Message{ID: StringID("a"), DetailsVisible: &visible}

	clone := original.Clone()
	*clone.DetailsVisible = false

	assert.True(t, original.ShowDetails())
	assert.False(t, clone.ShowDetails())
}

func TestAPIErrorString(t *testing.T) {
	assert.Equal(t, "Not Found: could not find with ID: 9", APIError{Error: "Not Found", Message: "could not find with ID: 9"}.String())
}
