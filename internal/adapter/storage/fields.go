package storage

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/rl1809/store-inventory/internal/port"
)

var ErrInvalidField = errors.New("invalid document field name")

// Field names end up inside JSON paths, Lua lookups and Mongo filters, so
// only plain identifiers are accepted.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

// sortedFields validates every key of set and returns them in a stable order.
func sortedFields(set port.Document) ([]string, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		if err := checkField(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
