// Package typeid generates the prefixed ids of map items and operations.
// Ids read from existing projects are accepted as they are; only ids
// supplied by clients for new items are checked.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixImage      = "img"
	PrefixArea       = "area"
	PrefixConnection = "conn"
	PrefixOp         = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewImageID() string      { return New(PrefixImage) }
func NewAreaID() string       { return New(PrefixArea) }
func NewConnectionID() string { return New(PrefixConnection) }
func NewOpID() string         { return New(PrefixOp) }

// Validate checks that id parses and carries the expected prefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("id %q: want prefix %q, got %q", id, expectedPrefix, parsed.Prefix())
	}
	return nil
}
