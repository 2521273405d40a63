/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantUnmarshalRating(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{name: "number", raw: `1850`, want: intPtr(1850)},
		{name: "fractional number", raw: `1850.7`, want: intPtr(1850)},
		{name: "numeric string", raw: `"1720"`, want: intPtr(1720)},
		{name: "leading digits", raw: `"1720 DWZ"`, want: intPtr(1720)},
		{name: "null", raw: `null`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
		{name: "non-numeric string", raw: `"unrated"`, want: nil},
		{name: "boolean", raw: `true`, want: nil},
		{name: "max int", raw: `9223372036854775807`, want: intPtr(math.MaxInt)},
		{name: "above int range", raw: `1e20`, want: nil},
		{name: "below int range", raw: `-1e20`, want: nil},
		{name: "string above int range", raw: `"99999999999999999999"`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Participant
			err := json.Unmarshal([]byte(`{"name":"Anna","club":"SK","birthYear":1990,"eloDwz":`+tt.raw+`}`), &p)
			require.NoError(t, err)

			assert.Equal(t, tt.want, p.EloDwz)
		})
	}
}

func TestParticipantUnmarshalMissingRating(t *testing.T) {
	var p Participant
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Anna","club":"SK","birthYear":1990}`), &p))

	assert.Nil(t, p.EloDwz)
	assert.Equal(t, 0, p.rating())
}

func TestParticipantUnmarshalFields(t *testing.T) {
	var p Participant
	err := json.Unmarshal([]byte(`{
		"name": "Bernd",
		"club": "SV Glückauf",
		"birthYear": "1987",
		"eloDwz": 2011,
		"registrationDate": "2026-09-01T08:30:00.000Z"
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "Bernd", p.Name)
	assert.Equal(t, "SV Glückauf", p.Club)
	assert.Equal(t, 1987, p.BirthYear)
	assert.Equal(t, 2011, p.rating())
	assert.True(t, p.RegistrationDate.Equal(time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)))
}

func TestParticipantUnmarshalBadDate(t *testing.T) {
	var p Participant
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Anna","registrationDate":"gestern"}`), &p))

	assert.True(t, p.RegistrationDate.IsZero())
	assert.Equal(t, "-", formatDate(p.RegistrationDate))
}

func TestParticipantListUnmarshal(t *testing.T) {
	var ps []Participant
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"A","eloDwz":1},{"name":"B","eloDwz":null}]`), &ps))

	require.Len(t, ps, 2)
	assert.Equal(t, 1, *ps[0].EloDwz)
	assert.Nil(t, ps[1].EloDwz)
}
