package zarr

import (
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const specExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	err := json.Unmarshal([]byte(specExample), m)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
	if m.Compressor == nil || m.Compressor.ID != "blosc" {
		t.Errorf("expected blosc compressor, got %#v", m.Compressor)
	}
	if len(m.Filters) != 1 || m.Filters[0].AsType != "<f4" {
		t.Errorf("unexpected filters: %#v", m.Filters)
	}
	if !math.IsNaN(m.fill()) {
		t.Errorf("expected NaN fill value, got %v", m.fill())
	}
}

func TestArrayMetaGolden(t *testing.T) {
	zst, err := NewCompressionMeta("zst")
	if err != nil {
		t.Fatal(err)
	}
	f4 := NewArrayMeta(Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}, 30, 20, 8)
	f4.Compressor = zst

	cases := map[string]*ArrayMeta{
		"uint8_100x50": NewArrayMeta(Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}, 100, 50, 64),
		"float32_zst":  f4,
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, m := range cases {
		data, err := jsonBytes(m, "  ")
		if err != nil {
			t.Fatal(err)
		}
		g.Assert(t, name, data)

		got := &ArrayMeta{}
		if err := json.Unmarshal(data, got); err != nil {
			t.Fatal(err)
		}
		if got.Dtype.Dtype != m.Dtype.Dtype {
			t.Errorf("%s: dtype round trip: want %s got %s", name, m.Dtype.Dtype, got.Dtype.Dtype)
		}
	}
}

func TestArrayMetaValidate(t *testing.T) {
	u1 := Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}
	bad := []*ArrayMeta{
		{Shape: []int{10}, Chunks: [2]int{1, 1}, Dtype: StructuredType{Dtype: u1}},
		{Shape: []int{10, 10}, Chunks: [2]int{0, 1}, Dtype: StructuredType{Dtype: u1}},
		{Shape: []int{10, 10}, Chunks: [2]int{1, 1}, Dtype: StructuredType{Dtype: Dtype{ByteOrder: BOLittleEndian, BasicType: BTComplex, ByteSize: 16}}},
		{Shape: []int{10, 10}, Chunks: [2]int{1, 1}, Dtype: StructuredType{Dtype: u1}, Order: "F"},
	}
	for i, m := range bad {
		if err := m.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestConsolidatedMetadata(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	f, err := os.Open("./testdata/landsat.zmetadata")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cm); err != nil {
		t.Fatal(err)
	}

	if cm.ConsolidatedFormat != 1 {
		t.Errorf("expected consolidated format 1, got %d", cm.ConsolidatedFormat)
	}
	arrays := cm.Arrays()
	if len(arrays) != 2 || arrays[0] != "B07" || arrays[1] != "thermal" {
		t.Errorf("unexpected arrays: %v", arrays)
	}
	attrs, ok := cm.Metadata["B07/.zattrs"].(Attributes)
	if !ok {
		t.Fatalf("expected attributes for B07, got %T", cm.Metadata["B07/.zattrs"])
	}
	if s, _ := attrs.String("object_type"); s != "zarr-raster::raster" {
		t.Errorf("unexpected object type %q", s)
	}
}
