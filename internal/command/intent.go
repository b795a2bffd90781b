package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/klytics/sheetsense/internal/sheets"
)

// Intent is a validated command. It is built only through NewIntent and
// cannot be changed afterwards.
type Intent struct {
	op         Operation
	sheet      string
	rng        *sheets.Range
	value      string
	values     []string
	find       string
	replace    string
	wholeSheet bool
}

// NewIntent validates raw operation parameters, as decoded from model JSON,
// into an Intent.
func NewIntent(operation string, params map[string]any) (Intent, error) {
	op, err := ParseOperation(operation)
	if err != nil {
		return Intent{}, err
	}
	in := Intent{op: op}

	if sheet, ok, err := optionalString(op, params, "sheet"); err != nil {
		return Intent{}, err
	} else if ok {
		in.sheet = strings.TrimSpace(sheet)
	}

	switch op {
	case WriteCell:
		cell, err := requireString(op, params, "cell")
		if err != nil {
			return Intent{}, err
		}
		sheet, addr := splitQualified(cell)
		c, err := sheets.ParseCell(addr)
		if err != nil {
			return Intent{}, Validationf(op, "%v", err)
		}
		r := sheets.SingleCell(c)
		in.rng = &r
		in.adoptSheet(sheet)

		raw, ok := params["value"]
		if !ok || raw == nil {
			return Intent{}, Validationf(op, "missing required parameter %q", "value")
		}
		v, err := scalar(raw)
		if err != nil {
			return Intent{}, Validationf(op, "parameter %q: %v", "value", err)
		}
		in.value = v

	case ReadRange:
		s, err := requireString(op, params, "range")
		if err != nil {
			return Intent{}, err
		}
		sheet, addr := splitQualified(s)
		r, err := sheets.ParseRange(addr)
		if err != nil {
			return Intent{}, Validationf(op, "%v", err)
		}
		in.rng = &r
		in.adoptSheet(sheet)

	case AppendRow:
		raw, ok := params["values"]
		if !ok || raw == nil {
			return Intent{}, Validationf(op, "missing required parameter %q", "values")
		}
		list, ok := raw.([]any)
		if !ok {
			return Intent{}, Validationf(op, "parameter %q must be a list of values", "values")
		}
		if len(list) == 0 {
			return Intent{}, Validationf(op, "parameter %q must not be empty", "values")
		}
		in.values = make([]string, len(list))
		for i, item := range list {
			if item == nil {
				continue
			}
			v, err := scalar(item)
			if err != nil {
				return Intent{}, Validationf(op, "values[%d]: %v", i, err)
			}
			in.values[i] = v
		}

	case FindReplace:
		find, err := requireString(op, params, "find")
		if err != nil {
			return Intent{}, err
		}
		if find == "" {
			return Intent{}, Validationf(op, "parameter %q must not be empty", "find")
		}
		in.find = find

		rawReplace, ok := params["replace"]
		if !ok {
			return Intent{}, Validationf(op, "missing required parameter %q", "replace")
		}
		if rawReplace == nil {
			rawReplace = ""
		}
		replace, err := scalar(rawReplace)
		if err != nil {
			return Intent{}, Validationf(op, "parameter %q: %v", "replace", err)
		}
		in.replace = replace

		s, hasRange, err := optionalString(op, params, "range")
		if err != nil {
			return Intent{}, err
		}
		if hasRange && strings.TrimSpace(s) != "" {
			sheet, addr := splitQualified(s)
			r, err := sheets.ParseRange(addr)
			if err != nil {
				return Intent{}, Validationf(op, "%v", err)
			}
			in.rng = &r
			in.adoptSheet(sheet)
		} else {
			scope, _, err := optionalString(op, params, "scope")
			if err != nil {
				return Intent{}, err
			}
			if strings.ToLower(strings.TrimSpace(scope)) != "sheet" {
				return Intent{}, Validationf(op, `no range given: replacing across a whole tab must be confirmed with scope "sheet"`)
			}
			in.wholeSheet = true
		}

	case ListSheets:
	}

	return in, nil
}

func (in *Intent) adoptSheet(sheet string) {
	if sheet != "" && in.sheet == "" {
		in.sheet = sheet
	}
}

// Operation returns the operation to perform.
func (in Intent) Operation() Operation { return in.op }

// Sheet returns the requested tab, or "" for the default tab.
func (in Intent) Sheet() string { return in.sheet }

// Range returns the addressed range; ok is false when the whole tab is addressed.
func (in Intent) Range() (r sheets.Range, ok bool) {
	if in.rng == nil {
		return sheets.Range{}, false
	}
	return *in.rng, true
}

// Value returns the value for write_cell.
func (in Intent) Value() string { return in.value }

// Values returns a copy of the row for append_row.
func (in Intent) Values() []string {
	return append([]string(nil), in.values...)
}

// Find returns the search text for find_replace.
func (in Intent) Find() string { return in.find }

// Replace returns the replacement text for find_replace.
func (in Intent) Replace() string { return in.replace }

// WholeSheet reports whether find_replace was confirmed for the whole tab.
func (in Intent) WholeSheet() bool { return in.wholeSheet }

// Params renders the intent back into canonical parameters.
func (in Intent) Params() map[string]any {
	p := map[string]any{}
	if in.sheet != "" {
		p["sheet"] = in.sheet
	}
	switch in.op {
	case WriteCell:
		p["cell"] = in.rng.Start.String()
		p["value"] = in.value
	case ReadRange:
		p["range"] = in.rng.String()
	case AppendRow:
		p["values"] = in.Values()
	case FindReplace:
		p["find"] = in.find
		p["replace"] = in.replace
		if in.rng != nil {
			p["range"] = in.rng.String()
		} else {
			p["scope"] = "sheet"
		}
	}
	return p
}

func requireString(op Operation, params map[string]any, key string) (string, error) {
	s, ok, err := optionalString(op, params, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", Validationf(op, "missing required parameter %q", key)
	}
	return s, nil
}

func optionalString(op Operation, params map[string]any, key string) (string, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, Validationf(op, "parameter %q must be a string, got %T", key, raw)
	}
	return s, true, nil
}

// scalar stringifies a JSON scalar. Whole numbers render without a decimal point.
func scalar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case json.Number:
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("expected a string, number or boolean, got %T", v)
	}
}

// splitQualified splits "Sheet1!A1:B2" or "'My Tab'!A1" into tab and address.
func splitQualified(s string) (sheet, addr string) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, "!")
	if i < 0 {
		return "", s
	}
	sheet = s[:i]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, s[i+1:]
}
