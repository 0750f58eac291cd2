package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Nullable distinguishes an omitted JSON field (Set == false) from an
// explicit null (Set && Null) and a value.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: v} }

// Null returns an explicitly cleared Nullable.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true, Null: true} }

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Null {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Patch is a partial update. A nil pointer or unset Nullable leaves the
// field untouched; it is never reset to empty.
type Patch struct {
	Name             *string                 `json:"name,omitempty"`
	Description      *string                 `json:"description,omitempty"`
	Status           *Status                 `json:"status,omitempty"`
	Priority         Nullable[Priority]      `json:"priority"`
	Timeframe        Nullable[Timeframe]     `json:"timeframe"`
	AssigneeIDs      *IDSet                  `json:"assigneeIds,omitempty"`
	BlockedByTaskIDs *IDSet                  `json:"blockedByTaskIds,omitempty"`
	BlockedReason    Nullable[BlockedReason] `json:"blockedReason"`
	EstimatedHours   Nullable[float64]       `json:"estimatedHours"`
	ActualHours      Nullable[float64]       `json:"actualHours"`
	Tags             *[]string               `json:"tags,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Status == nil &&
		!p.Priority.Set && !p.Timeframe.Set && p.AssigneeIDs == nil &&
		p.BlockedByTaskIDs == nil && !p.BlockedReason.Set &&
		!p.EstimatedHours.Set && !p.ActualHours.Set && p.Tags == nil
}

// Validate checks field-level constraints.
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("unknown status %q", *p.Status)
	}
	if p.Priority.Set && !p.Priority.Null && !p.Priority.Value.Valid() {
		return fmt.Errorf("unknown priority %q", p.Priority.Value)
	}
	if p.Timeframe.Set && !p.Timeframe.Null {
		if err := validateTimeframe(p.Timeframe.Value); err != nil {
			return err
		}
	}
	if p.EstimatedHours.Set && !p.EstimatedHours.Null && p.EstimatedHours.Value < 0 {
		return fmt.Errorf("estimatedHours must not be negative")
	}
	if p.ActualHours.Set && !p.ActualHours.Null && p.ActualHours.Value < 0 {
		return fmt.Errorf("actualHours must not be negative")
	}
	return nil
}

// CreateInput carries the client-writable fields of a new task.
type CreateInput struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Status           *Status        `json:"status,omitempty"`
	Priority         *Priority      `json:"priority,omitempty"`
	Timeframe        *Timeframe     `json:"timeframe,omitempty"`
	AssigneeIDs      IDSet          `json:"assigneeIds,omitempty"`
	BlockedByTaskIDs IDSet          `json:"blockedByTaskIds,omitempty"`
	BlockedReason    *BlockedReason `json:"blockedReason,omitempty"`
	EstimatedHours   *float64       `json:"estimatedHours,omitempty"`
	ActualHours      *float64       `json:"actualHours,omitempty"`
	Tags             []string       `json:"tags,omitempty"`
}

// Validate checks field-level constraints.
func (in CreateInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if in.Status != nil && !in.Status.Valid() {
		return fmt.Errorf("unknown status %q", *in.Status)
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *in.Priority)
	}
	if in.Timeframe != nil {
		if err := validateTimeframe(*in.Timeframe); err != nil {
			return err
		}
	}
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		return fmt.Errorf("estimatedHours must not be negative")
	}
	if in.ActualHours != nil && *in.ActualHours < 0 {
		return fmt.Errorf("actualHours must not be negative")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name exceeds %d characters", MaxNameLength)
	}
	return nil
}

func validateTimeframe(tf Timeframe) error {
	if tf.Start != nil && tf.End != nil && tf.End.Before(*tf.Start) {
		return fmt.Errorf("timeframe end precedes start")
	}
	return nil
}
