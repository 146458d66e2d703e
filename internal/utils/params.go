package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func invalidFieldMessage(key string) string {
	return fmt.Sprintf("Invalid field value for field %q.", key)
}

// ParseFloatParam retrieves a float64 value from the provided URL query parameters.
// A missing key yields def. An unparsable value yields def and records an error for the key.
func ParseFloatParam(params url.Values, key string, def float64, fieldErrors map[string][]string) float64 {
	val := params.Get(key)
	if val == "" {
		return def
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
		return def
	}
	return f
}

// ParseBoolParam retrieves a boolean flag. Missing keys are false.
func ParseBoolParam(params url.Values, key string, fieldErrors map[string][]string) bool {
	val := params.Get(key)
	if val == "" {
		return false
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
		return false
	}
	return b
}

// ParseIntListParam retrieves a comma separated list of integers, e.g. "0,3".
func ParseIntListParam(params url.Values, key string, fieldErrors map[string][]string) []int {
	val := params.Get(key)
	if val == "" {
		return nil
	}

	var out []int
	for _, part := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			fieldErrors[key] = append(fieldErrors[key], invalidFieldMessage(key))
			return nil
		}
		out = append(out, n)
	}
	return out
}
