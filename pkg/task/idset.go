package task

import (
	"encoding/json"
	"slices"
)

// IDSet is an order-irrelevant set of ids kept in canonical (sorted,
// de-duplicated) form. The zero value is an empty set.
type IDSet []string

// NewIDSet builds a canonical set, dropping empty ids.
func NewIDSet(ids ...string) IDSet {
	out := make(IDSet, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (s IDSet) Len() int { return len(s) }

func (s IDSet) Contains(id string) bool {
	_, ok := slices.BinarySearch(s, id)
	return ok
}

// Equal compares two sets regardless of the order they were built in.
func (s IDSet) Equal(other IDSet) bool {
	return slices.Equal(NewIDSet(s...), NewIDSet(other...))
}

// Without returns a copy of s with id removed.
func (s IDSet) Without(id string) IDSet {
	out := make(IDSet, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Strings returns the ids as a plain slice, never nil.
func (s IDSet) Strings() []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
