// Package display formats command output.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/teranos/tracekit/errors"
)

// MarshalJSON marshals v with indentation. Float maps are accepted with
// non-finite values, which encode as null since JSON has no NaN.
func MarshalJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(finite(v), "", "  ")
}

// OutputJSON writes v as indented JSON followed by a newline
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func finite(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return t
	case map[string]float64:
		out := make(map[string]interface{}, len(t))
		for k, f := range t {
			out[k] = finite(f)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, x := range t {
			out[k] = finite(x)
		}
		return out
	}
	return v
}
