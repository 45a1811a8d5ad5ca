package zarr

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDtype(t *testing.T) {
	good := map[string]Dtype{
		"|u1":     {ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1},
		"<u2":     {ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 2},
		"&lt;f4":  {ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4},
		">i8":     {ByteOrder: BOBigEndian, BasicType: BTInteger, ByteSize: 8},
		"<M8[ns]": {ByteOrder: BOLittleEndian, BasicType: BTDatetime, ByteSize: 8, Units: "[ns]"},
	}
	for s, want := range good {
		got, err := ParseDtype(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	for _, s := range []string{"", "<u", "?u1", "<z4", "<u0", "<uX"} {
		_, err := ParseDtype(s)
		assert.Error(t, err, s)
	}
}

func TestQuantize(t *testing.T) {
	u1 := Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}
	assert.Equal(t, 255.0, u1.Quantize(255.6))
	assert.Equal(t, 0.0, u1.Quantize(-3))
	assert.Equal(t, 0.0, u1.Quantize(math.NaN()))
	assert.Equal(t, 4.0, u1.Quantize(3.5))

	f4 := Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}
	assert.Equal(t, float64(float32(0.1)), f4.Quantize(0.1))

	buf := make([]byte, 2)
	i2 := Dtype{ByteOrder: BOBigEndian, BasicType: BTInteger, ByteSize: 2}
	i2.encode(buf, -1234)
	assert.Equal(t, -1234.0, i2.decode(buf))
}

func TestStructuredTypeJSON(t *testing.T) {
	st := StructuredType{}
	require.NoError(t, json.Unmarshal([]byte(`"<u2"`), &st))
	assert.True(t, st.IsBasic())
	data, err := jsonBytes(st, "")
	require.NoError(t, err)
	assert.Equal(t, "\"<u2\"\n", string(data))

	require.NoError(t, json.Unmarshal([]byte(`["r", "|u1", [3]]`), &st))
	assert.False(t, st.IsBasic())
	assert.Equal(t, "r", st.Fieldname)
	assert.Equal(t, []int{3}, st.Shape)

	assert.Error(t, json.Unmarshal([]byte(`[["r", "|u1"], ["g", "|u1"]]`), &st))
}
