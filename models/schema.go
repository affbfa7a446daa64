package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/evdnx/goxchange/currency"
)

// FieldMap is the flat field→raw-value mapping an exchange adapter hands to
// an entity constructor.
type FieldMap map[string]any

// Caster validates and converts a single raw field value.
type Caster func(value any) (any, error)

// Schema maps entity field names to their casting functions. Construction
// applies the caster for every incoming field and rejects fields the schema
// does not know about.
type Schema map[string]Caster

// Apply runs every field of the map through its caster. An unknown field is
// a hard error naming both the field and the entity; there is no partial
// success.
func (s Schema) Apply(entity string, fields FieldMap) (FieldMap, error) {
	out := make(FieldMap, len(fields))
	for field, value := range fields {
		caster, ok := s[field]
		if !ok {
			return nil, fmt.Errorf("unknown field %q for %s", field, entity)
		}
		cast, err := caster(value)
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", entity, field, err)
		}
		out[field] = cast
	}
	return out, nil
}

// castDecimal converts raw numeric input to an exact decimal. String input
// is preferred; numeric wire types are accepted because some exchanges emit
// bare JSON numbers.
func castDecimal(value any) (any, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		// last resort for pre-decoded payloads; formatted via strconv so the
		// shortest round-tripping representation is parsed, not the binary one
		return decimal.NewFromString(fmt.Sprintf("%v", v))
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", value)
	}
}

// castString stringifies IDs that arrive as either strings or integers.
func castString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to string", value)
	}
}

// castOptionalString is castString that lets nil through, for entities whose
// upstream API genuinely has no identifier.
func castOptionalString(value any) (any, error) {
	if value == nil {
		return (*string)(nil), nil
	}
	cast, err := castString(value)
	if err != nil {
		return nil, err
	}
	s := cast.(string)
	return &s, nil
}

// restrictedTo builds a caster accepting only the listed lowercase values.
func restrictedTo(values ...string) Caster {
	return func(value any) (any, error) {
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		lowered := strings.ToLower(raw)
		for _, valid := range values {
			if lowered == valid {
				return lowered, nil
			}
		}
		return nil, fmt.Errorf("%q is not a valid value, expected any of %v", raw, values)
	}
}

// castSymbol normalizes a raw currency spelling to its canonical symbol.
func castSymbol(value any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return currency.NormalizeSymbol(raw)
}

// castPair normalizes a raw pair spelling to its canonical pair.
func castPair(value any) (any, error) {
	raw, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	return currency.NormalizePair(raw)
}

// castLevelsDesc sorts a level list descending by price. Both book
// sides are stored best-bid-first / highest-ask-first; the pricing engine
// relies on this ordering.
func castLevelsDesc(value any) (any, error) {
	levels, ok := value.([]Level)
	if !ok {
		return nil, fmt.Errorf("expected []Level, got %T", value)
	}
	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price.GreaterThan(sorted[j].Price)
	})
	return sorted, nil
}

func fieldDecimal(fields FieldMap, name string) decimal.Decimal {
	v, _ := fields[name].(decimal.Decimal)
	return v
}

func fieldString(fields FieldMap, name string) string {
	v, _ := fields[name].(string)
	return v
}

// missingFields returns required schema fields absent from the map.
func missingFields(fields FieldMap, required ...string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func requireFields(entity string, fields FieldMap, required ...string) error {
	if missing := missingFields(fields, required...); len(missing) > 0 {
		return fmt.Errorf("%s is missing required fields: %s", entity, strings.Join(missing, ", "))
	}
	return nil
}
