package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Int is an integer that also decodes from numeric strings, booleans and
// null. Form fields arrive as strings, so every id in the wire format uses it.
type Int int64

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*i = 0
		return nil
	case bytes.Equal(data, []byte("true")):
		*i = 1
		return nil
	case bytes.Equal(data, []byte("false")):
		*i = 0
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := parseInt(s)
		if err != nil {
			return err
		}
		*i = Int(v)
		return nil
	default:
		v, err := parseInt(string(data))
		if err != nil {
			return err
		}
		*i = Int(v)
		return nil
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("document: %q is not an integer", s)
	}
	return int64(f), nil
}

// Flag is a boolean that also decodes from 0/1 and "0"/"1"/"true"/"on".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "on", "yes", "checked":
			*f = true
		default:
			*f = false
		}
		return nil
	}
	var i Int
	if err := i.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = i != 0
	return nil
}

// IDSet is an ordered set of node ids. It decodes from a JSON array or from
// the legacy comma-joined string ("5,9,").
type IDSet []int64

// Add appends id unless it is already present or not a valid row id.
func (s *IDSet) Add(id int64) {
	if id <= 0 || s.Has(id) {
		return
	}
	*s = append(*s, id)
}

// Has reports whether id is in the set.
func (s IDSet) Has(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(s))
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = nil
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, id := range SplitIDs(raw) {
			s.Add(id)
		}
		return nil
	}
	var items []Int
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	for _, id := range items {
		s.Add(int64(id))
	}
	return nil
}

// SplitIDs parses a comma-joined id list, skipping blanks and junk.
func SplitIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, v)
	}
	return ids
}

// JoinIDs is the inverse of SplitIDs.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
