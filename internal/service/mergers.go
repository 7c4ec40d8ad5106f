package service

import (
	"reflect"
	"strings"
	"time"
)

// severityRank is the fixed total order used when merging severity-like
// ordinal fields: the more severe side wins.
var severityRank = map[string]int{
	"unknown":  0,
	"minor":    1,
	"moderate": 2,
	"major":    3,
	"severe":   4,
	"extreme":  5,
}

// updatedMarker separates the two halves of a concatenated free-text merge.
const updatedMarker = "\n[Updated] "

// builtinMergers returns the default per-field merge table. Every entry can
// be overridden through RegisterMerger.
func builtinMergers() map[string]MergeFunc {
	return map[string]MergeFunc{
		"severity":    mergeSeverity,
		"tags":        mergeUnion,
		"categories":  mergeUnion,
		"regions":     mergeUnion,
		"description": mergeConcat,
		"instruction": mergeConcat,
		"effective":   mergeLaterTime,
		"onset":       mergeLaterTime,
		"expires":     mergeLaterTime,
	}
}

// mergeSeverity picks the more severe of two ordinal severity values.
// Unknown labels rank lowest; ties go to the remote side.
func mergeSeverity(_ string, local, remote any) any {
	l, lok := asString(local)
	r, rok := asString(remote)
	if !lok {
		return remote
	}
	if !rok {
		return local
	}

	if severityRank[strings.ToLower(l)] > severityRank[strings.ToLower(r)] {
		return local
	}
	return remote
}

// mergeUnion merges two array values as a set union: local elements keep
// their order, unseen remote elements are appended.
func mergeUnion(_ string, local, remote any) any {
	l, lok := asSlice(local)
	r, rok := asSlice(remote)
	if !lok {
		return remote
	}
	if !rok {
		return local
	}

	seen := make(map[string]struct{}, len(l))
	out := make([]any, 0, len(l)+len(r))
	for _, el := range l {
		seen[canonicalForm(el)] = struct{}{}
		out = append(out, el)
	}
	for _, el := range r {
		key := canonicalForm(el)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, el)
	}
	return out
}

// mergeConcat joins two free-text values, marking where the remote update
// begins. Empty sides collapse to the other side unchanged.
func mergeConcat(_ string, local, remote any) any {
	l, lok := asString(local)
	r, rok := asString(remote)
	if !lok || l == "" {
		return remote
	}
	if !rok || r == "" {
		return local
	}
	if l == r {
		return l
	}
	return l + updatedMarker + r
}

// mergeLaterTime picks the later of two timestamp values. Values that do not
// parse as timestamps fall back to the remote side.
func mergeLaterTime(_ string, local, remote any) any {
	lt, lok := asTime(local)
	rt, rok := asTime(remote)
	if !lok {
		return remote
	}
	if !rok {
		return local
	}
	if lt.After(rt) {
		return local
	}
	return remote
}

// genericMerge is the fallback applied by StrategyMerge when no per-field
// merger is registered:
//
//   - nil/absent on one side yields the other side;
//   - equal values are unchanged;
//   - two arrays merge as a set union;
//   - two objects shallow-merge, remote fields overriding shared keys;
//   - two strings default to remote unless the field name suggests free
//     text, in which case both are concatenated with an update marker;
//   - two numbers default to remote unless the field name suggests a
//     counter or limit, in which case the maximum is taken;
//   - anything else defaults to the remote value.
func genericMerge(field string, local, remote any) any {
	if local == nil {
		return remote
	}
	if remote == nil {
		return local
	}
	if valuesEqual(local, remote) {
		return local
	}

	if _, ok := asSlice(local); ok {
		if _, ok := asSlice(remote); ok {
			return mergeUnion(field, local, remote)
		}
	}

	if lm, ok := asStringMap(local); ok {
		if rm, ok := asStringMap(remote); ok {
			out := make(map[string]any, len(lm)+len(rm))
			for k, v := range lm {
				out[k] = v
			}
			for k, v := range rm {
				out[k] = v
			}
			return out
		}
	}

	if _, ok := asString(local); ok {
		if _, ok := asString(remote); ok {
			if isFreeTextField(field) {
				return mergeConcat(field, local, remote)
			}
			return remote
		}
	}

	if lf, ok := asFloat(local); ok {
		if rf, ok := asFloat(remote); ok {
			if isCounterField(field) {
				if lf > rf {
					return local
				}
				return remote
			}
			return remote
		}
	}

	return remote
}

var freeTextHints = []string{"description", "note", "comment", "summary", "instruction", "headline"}

func isFreeTextField(field string) bool {
	f := strings.ToLower(field)
	for _, hint := range freeTextHints {
		if strings.Contains(f, hint) {
			return true
		}
	}
	return false
}

var counterHints = []string{"count", "total", "max", "limit"}

func isCounterField(field string) bool {
	f := strings.ToLower(field)
	for _, hint := range counterHints {
		if strings.Contains(f, hint) {
			return true
		}
	}
	return false
}

// ── dynamic value coercion ──────────────────────────────────────────────────
//
// Field values arrive either freshly decoded from JSON (map[string]any,
// []any, float64) or constructed in process with concrete Go types
// ([]string, int, time.Time). The helpers below accept both shapes.

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false // []byte is a scalar, not a list
	}

	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asStringMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	for _, key := range rv.MapKeys() {
		out[key.String()] = rv.MapIndex(key).Interface()
	}
	return out, true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
