package models

import (
	"database/sql/driver"
	"fmt"
)

// Status is the three-level classification attached to a reading at evaluation time.
// It is always derived, never stored on its own.
type Status int

const (
	StatusNormal Status = iota
	StatusCaution
	StatusCritical
)

var statusNames = map[Status]string{
	StatusNormal:   "normal",
	StatusCaution:  "caution",
	StatusCritical: "critical",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsConcerning reports whether s is caution or critical.
func (s Status) IsConcerning() bool {
	return s > StatusNormal
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusNormal, fmt.Errorf("unknown status: %q", name)
}

// MaxStatus returns the most severe of statuses; critical dominates caution dominates normal.
func MaxStatus(statuses ...Status) Status {
	out := StatusNormal
	for _, s := range statuses {
		if s > out {
			out = s
		}
	}
	return out
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("invalid status: %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status as its name.
func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan reads a status name written by Value.
func (s *Status) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
}
