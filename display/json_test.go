package display

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	report := map[string]interface{}{
		"map":              0.5,
		"lag":              math.NaN(),
		"confusion_matrix": map[string]float64{"tp": 2, "fp": math.Inf(1)},
	}
	require.NoError(t, OutputJSON(&buf, report))

	assert.JSONEq(t, `{"map": 0.5, "lag": null, "confusion_matrix": {"tp": 2, "fp": null}}`, buf.String())
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

func TestMarshalJSON_Structs(t *testing.T) {
	data, err := MarshalJSON(struct {
		Name string `json:"name"`
	}{"tracekit"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"tracekit\"\n}", string(data))
}
