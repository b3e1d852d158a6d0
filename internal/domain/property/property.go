package property

import (
	"errors"
	"strings"
)

var ErrIDRequired = errors.New("property: id is required")

// ID identifies a rentable property. Reservations, pricing periods and cache
// entries are all scoped by it.
type ID string

func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrIDRequired
	}
	return ID(raw), nil
}

func (id ID) String() string { return string(id) }
