package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
)

// requireString extracts a mandatory string parameter
func requireString(params map[string]interface{}, key string) (string, error) {
	value, ok := params[key].(string)
	if !ok {
		return "", domain.NewError(domain.KindInvalidArgument, "%s parameter is required", key)
	}
	return value, nil
}

// optionalString extracts a string parameter, falling back to def when absent
func optionalString(params map[string]interface{}, key, def string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", domain.NewError(domain.KindInvalidArgument, "%s must be a string", key)
	}
	return value, nil
}

// optionalInt extracts an integer parameter. JSON numbers, json.Number and
// numeric strings are accepted; fractional values are rejected.
func optionalInt(params map[string]interface{}, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, domain.NewError(domain.KindInvalidArgument, "%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, domain.Wrap(domain.KindInvalidArgument, err, "%s must be an integer", key)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, domain.Wrap(domain.KindInvalidArgument, err, "%s must be an integer", key)
		}
		return n, nil
	default:
		return 0, domain.NewError(domain.KindInvalidArgument, "%s must be an integer", key)
	}
}

// optionalArray extracts a list parameter as driver arguments. Scalars are
// passed through; nested values are rendered as JSON text.
func optionalArray(params map[string]interface{}, key string) ([]interface{}, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, domain.NewError(domain.KindInvalidArgument, "%s must be an array", key)
	}

	args := make([]interface{}, len(list))
	for i, item := range list {
		switch v := item.(type) {
		case nil, string, bool, float64, int, int64, json.Number:
			args[i] = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, domain.Wrap(domain.KindInvalidArgument, err, "%s[%d] is not serializable", key, i)
			}
			args[i] = string(b)
		}
	}
	return args, nil
}

func describeValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
