package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UUIDArray maps a Postgres uuid[] column. Array literal parsing and quoting
// are delegated to lib/pq.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		if strings.TrimSpace(v) == "" {
			*a = UUIDArray{}
			return nil
		}
	case []byte:
		if len(bytes.TrimSpace(v)) == 0 {
			*a = UUIDArray{}
			return nil
		}
	}
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("UUIDArray: %w", err)
	}
	out := make(UUIDArray, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", s, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}

func (a UUIDArray) Value() (driver.Value, error) {
	raw := make(pq.StringArray, len(a))
	for i, id := range a {
		raw[i] = id.String()
	}
	return raw.Value()
}

// Contains reports whether id is in the array.
func (a UUIDArray) Contains(id uuid.UUID) bool {
	return a.IndexOf(id) >= 0
}

func (a UUIDArray) IndexOf(id uuid.UUID) int {
	for i, v := range a {
		if v == id {
			return i
		}
	}
	return -1
}

// Without returns a copy of the array with every occurrence of id removed.
func (a UUIDArray) Without(id uuid.UUID) UUIDArray {
	out := make(UUIDArray, 0, len(a))
	for _, v := range a {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
