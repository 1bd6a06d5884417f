package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Consideration describes how strongly an admissions factor is weighed.
// The zero value is Unspecified.
type Consideration uint8

const (
	ConsiderationUnspecified Consideration = iota
	ConsiderationRequired
	ConsiderationRecommended
	ConsiderationConsidered
	ConsiderationNotRecommended
)

// Literals used by the export for the known levels.
const (
	literalRequired    = "Required"
	literalRecommended = "Recommended"
	literalConsidered  = "Considered but not required"
	literalNeither     = "Neither required nor recommended"
)

var considerationNames = [...]string{
	ConsiderationUnspecified:    "unspecified",
	ConsiderationRequired:       "required",
	ConsiderationRecommended:    "recommended",
	ConsiderationConsidered:     "considered",
	ConsiderationNotRecommended: "not_recommended",
}

// ParseConsideration maps an export value to a level. Absent values map to
// Unspecified. "Neither required nor recommended" and any unrecognized value
// map to NotRecommended.
func ParseConsideration(raw *string) Consideration {
	c, _ := classifyConsideration(raw)
	return c
}

// classifyConsideration also reports whether a present value was one of the
// recognized literals.
func classifyConsideration(raw *string) (Consideration, bool) {
	s, ok := present(raw)
	if !ok {
		return ConsiderationUnspecified, true
	}
	switch s {
	case literalRequired:
		return ConsiderationRequired, true
	case literalRecommended:
		return ConsiderationRecommended, true
	case literalConsidered:
		return ConsiderationConsidered, true
	case literalNeither:
		return ConsiderationNotRecommended, true
	default:
		return ConsiderationNotRecommended, false
	}
}

// Valid reports whether c is one of the five defined levels.
func (c Consideration) Valid() bool {
	return int(c) < len(considerationNames)
}

func (c Consideration) String() string {
	if !c.Valid() {
		return "Consideration(" + strconv.Itoa(int(c)) + ")"
	}
	return considerationNames[c]
}

// MarshalText encodes the level by name.
func (c Consideration) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid consideration %d", uint8(c))
	}
	return []byte(considerationNames[c]), nil
}

// UnmarshalText decodes a level name produced by MarshalText.
func (c *Consideration) UnmarshalText(text []byte) error {
	for i, name := range considerationNames {
		if name == string(text) {
			*c = Consideration(i)
			return nil
		}
	}
	return fmt.Errorf("unknown consideration %q", text)
}

// Value stores the level as its small integer encoding.
func (c Consideration) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid consideration %d", uint8(c))
	}
	return int64(c), nil
}

// Scan reads the small integer encoding back.
func (c *Consideration) Scan(src any) error {
	var n int64
	switch v := src.(type) {
	case int64:
		n = v
	case []byte:
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return fmt.Errorf("scan consideration: %w", err)
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan consideration: %w", err)
		}
		n = parsed
	default:
		return fmt.Errorf("scan consideration: unsupported type %T", src)
	}
	if n < 0 || n >= int64(len(considerationNames)) {
		return fmt.Errorf("scan consideration: value %d out of range", n)
	}
	*c = Consideration(n)
	return nil
}
