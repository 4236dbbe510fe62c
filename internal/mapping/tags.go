package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tagKey is the struct tag key holding mapping declarations.
const tagKey = "orm"

// Tag flags and keys. Flags stand alone ("id"); keys take a value
// ("column:test_column").
const (
	flagID        = "id"
	flagIdentity  = "identity"
	flagUUID      = "uuid"
	flagOneToMany = "one_to_many"

	keyTable      = "table"
	keyColumn     = "column"
	keyInsertable = "insertable"
	keyNullable   = "nullable"
	keyJoin       = "join"
	keyFetch      = "fetch"
)

var knownFlags = map[string]bool{
	flagID:        true,
	flagIdentity:  true,
	flagUUID:      true,
	flagOneToMany: true,
}

var knownKeys = map[string]bool{
	keyTable:      true,
	keyColumn:     true,
	keyInsertable: true,
	keyNullable:   true,
	keyJoin:       true,
	keyFetch:      true,
}

// tagOptions is a parsed `orm` tag.
type tagOptions struct {
	flags  map[string]bool
	values map[string]string
}

// parseTag splits a tag such as "one_to_many,join:order_id,fetch:lazy".
// Unknown flags or keys, empty values and repeated entries are errors.
func parseTag(tag string) (tagOptions, error) {
	opts := tagOptions{flags: map[string]bool{}, values: map[string]string{}}
	if strings.TrimSpace(tag) == "" {
		return opts, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !hasValue {
			if !knownFlags[key] {
				return opts, fmt.Errorf("unknown option %q", key)
			}
			if opts.flags[key] {
				return opts, fmt.Errorf("repeated option %q", key)
			}
			opts.flags[key] = true
			continue
		}
		if !knownKeys[key] {
			return opts, fmt.Errorf("unknown option %q", key)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return opts, fmt.Errorf("option %q needs a value", key)
		}
		if _, dup := opts.values[key]; dup {
			return opts, fmt.Errorf("repeated option %q", key)
		}
		opts.values[key] = value
	}
	return opts, nil
}

// has reports whether any of the named flags or keys is present.
func (o tagOptions) has(names ...string) string {
	for _, n := range names {
		if o.flags[n] {
			return n
		}
		if _, ok := o.values[n]; ok {
			return n
		}
	}
	return ""
}

// boolValue reads a boolean key, returning def when absent.
func (o tagOptions) boolValue(key string, def bool) (bool, error) {
	raw, ok := o.values[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("option %q: %q is not a boolean", key, raw)
	}
	return b, nil
}

// fetchValue reads the fetch key; absent means eager.
func (o tagOptions) fetchValue() (FetchStrategy, error) {
	switch strings.ToLower(o.values[keyFetch]) {
	case "", "eager":
		return FetchEager, nil
	case "lazy":
		return FetchLazy, nil
	default:
		return FetchEager, fmt.Errorf("option %q: %q is not eager or lazy", keyFetch, o.values[keyFetch])
	}
}

// attributeName turns a Go field name into the default column name by
// lower-casing its leading upper-case run: ID -> id, OrderNumber ->
// orderNumber, URLPath -> urlPath.
func attributeName(field string) string {
	runes := []rune(field)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return field
	case n == 1 || n == len(runes):
		// Single leading capital, or an all-caps name.
	default:
		// Keep the capital that starts the next word: URLPath -> urlPath.
		if unicode.IsLower(runes[n]) {
			n--
		}
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
