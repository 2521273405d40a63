/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Participant is a tournament registrant as returned by the listing endpoint.
type Participant struct {
	Name             string    `json:"name"`
	Club             string    `json:"club"`
	BirthYear        int       `json:"birthYear"`
	EloDwz           *int      `json:"eloDwz"`
	RegistrationDate time.Time `json:"registrationDate"`
}

// Accepted layouts for registrationDate, tried in order.
var registrationDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes a participant leniently. A rating that is not a
// number or a numeric string is treated as absent, and so is an unparseable
// registration date.
func (p *Participant) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name             string          `json:"name"`
		Club             string          `json:"club"`
		BirthYear        json.RawMessage `json:"birthYear"`
		EloDwz           json.RawMessage `json:"eloDwz"`
		RegistrationDate json.RawMessage `json:"registrationDate"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Participant{
		Name:             raw.Name,
		Club:             raw.Club,
		EloDwz:           lenientInt(raw.EloDwz),
		RegistrationDate: lenientTime(raw.RegistrationDate),
	}

	if year := lenientInt(raw.BirthYear); year != nil {
		p.BirthYear = *year
	}

	return nil
}

// rating returns the value used for ranking: absent ratings count as 0.
func (p Participant) rating() int {
	if p.EloDwz == nil {
		return 0
	}
	return *p.EloDwz
}

// lenientInt accepts a JSON number or a string with a leading integer,
// truncating fractions. Anything else, including numbers outside the int
// range, yields nil.
func lenientInt(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 0); err == nil {
			v := int(i)
			return &v
		}

		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
			return nil
		}
		v := int(math.Trunc(f))
		return &v
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}

	return leadingInt(s)
}

func leadingInt(s string) *int {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}

	return &v
}

func lenientTime(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}

	s = strings.TrimSpace(s)
	for _, layout := range registrationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
