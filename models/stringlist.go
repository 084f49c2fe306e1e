package models

import (
	"encoding/json"
	"reflect"
	"strings"
)

// StringList is an ordered list of strings. In JSON it is written as an array
// and read from either an array or a comma-separated string. Items are
// trimmed and blank items are dropped; duplicates are kept.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SplitList(s)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return &json.UnmarshalTypeError{Value: "value", Type: reflect.TypeOf(StringList{})}
	}
	*l = cleanList(items)
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// SplitList splits a comma-separated string. The result is never nil, so an
// input that collapses to nothing still reads as "present but empty".
func SplitList(s string) StringList {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
