package options

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Linking-Dots/Aero-HR-sub002/internal/models"
)

// ErrMissingID is returned when a raw option has no usable id
var ErrMissingID = errors.New("option has no id")

var (
	idKeys    = []string{"id", "value"}
	labelKeys = []string{"name", "label", "title"}
	deptKeys  = []string{"department_id", "departmentId", "department"}
	levelKeys = []string{"level", "hierarchy_level", "seniority"}
)

// Normalize maps a loosely shaped option (id|value, name|label|title) to a
// models.Option. Department and level are picked up when present.
func Normalize(raw map[string]any) (models.Option, error) {
	var opt models.Option

	id, ok, err := firstInt(raw, idKeys)
	if err != nil {
		return opt, err
	}
	if !ok || id <= 0 {
		return opt, ErrMissingID
	}
	opt.ID = id

	for _, k := range labelKeys {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			opt.Label = strings.TrimSpace(s)
			break
		}
	}
	if opt.Label == "" {
		opt.Label = strconv.FormatInt(id, 10)
	}

	if dept, ok, err := firstInt(raw, deptKeys); err == nil && ok {
		opt.Meta.DepartmentID = dept
	}
	if level, ok, err := firstInt(raw, levelKeys); err == nil && ok {
		opt.Meta.Level = int(level)
	}
	if s, ok := raw["designation"].(string); ok {
		opt.Meta.Detail = s
	} else if s, ok := raw["email"].(string); ok {
		opt.Meta.Detail = s
	}
	return opt, nil
}

// NormalizeAll normalizes a list, skipping entries without an id
func NormalizeAll(raw []map[string]any) []models.Option {
	out := make([]models.Option, 0, len(raw))
	for _, r := range raw {
		opt, err := Normalize(r)
		if err != nil {
			continue
		}
		out = append(out, opt)
	}
	return out
}

func firstInt(raw map[string]any, keys []string) (int64, bool, error) {
	for _, k := range keys {
		v, present := raw[k]
		if !present || v == nil {
			continue
		}
		n, err := toInt(v)
		if err != nil {
			return 0, false, fmt.Errorf("option %s: %w", k, err)
		}
		return n, true, nil
	}
	return 0, false, nil
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case map[string]any:
		// nested {"id": 3, "name": "..."} relation
		n, ok, err := firstInt(t, idKeys)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrMissingID
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
