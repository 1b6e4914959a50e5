package sos

import (
	"encoding/json"
	"strconv"

	apierrors "github.com/safewalk/sos-dispatcher/internal/errors"
)

// OptionalString converts an optional payload value to the string placed in
// the push data. Absent and falsy values (null, "", false, 0) become "".
// Objects and arrays are rendered as JSON.
func OptionalString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		if !value {
			return ""
		}
		return "true"
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return value.String()
		}
		return formatNumber(f)
	case float64:
		return formatNumber(value)
	case int:
		return formatNumber(float64(value))
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

func formatNumber(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseContactUIDs validates the contactUids field and returns it as strings.
func parseContactUIDs(raw any) ([]string, error) {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case []string:
		list = make([]any, len(v))
		for i, uid := range v {
			list[i] = uid
		}
	}
	if len(list) == 0 {
		return nil, apierrors.InvalidArgument(msgContactsRequired)
	}
	if len(list) > MaxContacts {
		return nil, apierrors.InvalidArgument(msgTooManyContacts)
	}

	uids := make([]string, 0, len(list))
	for _, item := range list {
		uid, ok := item.(string)
		if !ok || uid == "" {
			return nil, apierrors.InvalidArgument(msgContactsNotStrings)
		}
		uids = append(uids, uid)
	}
	return uids, nil
}
