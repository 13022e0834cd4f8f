package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orient-appliances/storefront/internal/pkg/apperror"
)

// Specs is the technical data table of a product, stored as a jsonb object
type Specs map[string]string

// Value implements driver.Valuer
func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *Specs) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = Specs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Specs", value)
	}

	out := Specs{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode specs: %w", err)
	}
	*s = out
	return nil
}

// ParseSpecs decodes the specs form field. It must be a JSON object of strings; blank means none.
func ParseSpecs(raw string) (Specs, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Specs{}, nil
	}

	var specs Specs
	if err := json.Unmarshal([]byte(raw), &specs); err != nil || specs == nil {
		return nil, apperror.Validation("specs must be a JSON object of text values", "specs")
	}
	return specs, nil
}

// SplitLines turns a newline separated field into a trimmed list without blanks
func SplitLines(raw string) []string {
	return splitTrim(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

// SplitKeywords turns a comma separated field into a trimmed list without blanks
func SplitKeywords(raw string) []string {
	return splitTrim(raw, ",")
}

func splitTrim(raw, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
