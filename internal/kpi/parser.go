package kpi

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// valuePaths lists where a metric value may live, in priority order.
var valuePaths = [][]string{
	{"stats", "count"},
	{"stats", "max"},
	{"value"},
	{"stats", "value"},
}

// ParseQueueObservation extracts a partial QueueKpi from one observation
// event body. It never fails: malformed input yields an empty record.
//
// The metrics list is taken from data[0].metrics when present, else from
// metrics. Each entry names its metric with "metric", or "name" when metric
// is absent or null, and carries its value at the first present path of
// stats.count, stats.max, value, stats.value. Values that cannot be read as a number are skipped.
func ParseQueueObservation(body json.RawMessage) QueueKpi {
	var out QueueKpi

	var root map[string]json.RawMessage
	if json.Unmarshal(body, &root) != nil {
		return out
	}

	for _, raw := range metricsList(root) {
		var entry map[string]json.RawMessage
		if json.Unmarshal(raw, &entry) != nil {
			continue
		}

		name, ok := metricName(entry)
		if !ok {
			continue
		}

		rawValue, ok := firstValue(entry)
		if !ok {
			continue
		}
		value, ok := coerce(rawValue)
		if !ok {
			continue
		}

		out.set(name, value)
	}

	return out
}

// metricsList applies the envelope rules; a non-array list counts as empty.
func metricsList(root map[string]json.RawMessage) []json.RawMessage {
	if data, ok := present(root, "data"); ok {
		var items []map[string]json.RawMessage
		if json.Unmarshal(data, &items) == nil && len(items) > 0 {
			if metrics, ok := present(items[0], "metrics"); ok {
				return asArray(metrics)
			}
		}
	}

	if metrics, ok := present(root, "metrics"); ok {
		return asArray(metrics)
	}

	return nil
}

func asArray(raw json.RawMessage) []json.RawMessage {
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	return list
}

// present returns the field when it exists and is not null.
func present(obj map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// metricName takes "metric" whenever it is present and not null, else "name".
// A chosen field that is not a string names no metric.
func metricName(entry map[string]json.RawMessage) (string, bool) {
	raw, ok := present(entry, "metric")
	if !ok {
		raw, ok = present(entry, "name")
	}
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// firstValue walks valuePaths and returns the first present value.
func firstValue(entry map[string]json.RawMessage) (json.RawMessage, bool) {
	for _, path := range valuePaths {
		if raw, ok := lookup(entry, path); ok {
			return raw, true
		}
	}
	return nil, false
}

func lookup(obj map[string]json.RawMessage, path []string) (json.RawMessage, bool) {
	raw, ok := present(obj, path[0])
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return raw, true
	}

	var next map[string]json.RawMessage
	if json.Unmarshal(raw, &next) != nil {
		return nil, false
	}
	return lookup(next, path[1:])
}

// coerce reads a JSON number, numeric string or boolean as a float64.
func coerce(raw json.RawMessage) (float64, bool) {
	var v interface{}
	if json.Unmarshal(raw, &v) != nil {
		return 0, false
	}

	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
