package lasio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildLAS12 constructs a minimal LAS 1.2, point-format-0 file with the
// given points already quantized against scale/offset 0.01/0.
func buildLAS12(t *testing.T, points [][3]int32, classes []uint8) []byte {
	t.Helper()
	const headerSize = 227
	buf := make([]byte, headerSize)
	copy(buf[0:4], lasSignature)
	binary.LittleEndian.PutUint16(buf[94:96], headerSize)
	binary.LittleEndian.PutUint32(buf[96:100], headerSize)
	buf[104] = 0 // point format 0
	binary.LittleEndian.PutUint16(buf[105:107], 20)
	binary.LittleEndian.PutUint32(buf[107:111], uint32(len(points)))
	putF64 := func(off int, v float64) {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
	}
	putF64(131, 0.01) // scale x
	putF64(139, 0.01) // scale y
	putF64(147, 0.01) // scale z

	var out bytes.Buffer
	out.Write(buf)
	for i, p := range points {
		rec := make([]byte, 20)
		binary.LittleEndian.PutUint32(rec[0:4], uint32(p[0]))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(p[1]))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(p[2]))
		rec[15] = classes[i]
		out.Write(rec)
	}
	return out.Bytes()
}

func TestDecodeFormat0(t *testing.T) {
	points := [][3]int32{{100, 200, 300}, {-500, 700, 10}}
	classes := []uint8{2, 9}
	data := buildLAS12(t, points, classes)

	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	want := []RawPoint{
		{X: 1.0, Y: 2.0, Z: 3.0, Classification: 2},
		{X: -5.0, Y: 7.0, Z: 0.1, Classification: 9},
	}
	for i, w := range want {
		g := got[i]
		if math.Abs(g.X-w.X) > 1e-9 || math.Abs(g.Y-w.Y) > 1e-9 || math.Abs(g.Z-w.Z) > 1e-9 {
			t.Errorf("point %d = %+v, want %+v", i, g, w)
		}
		if g.Classification != w.Classification {
			t.Errorf("point %d classification = %d, want %d", i, g.Classification, w.Classification)
		}
	}
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	data := make([]byte, 227)
	copy(data, "NOPE")
	if _, err := Decode(bytes.NewReader(data)); err == nil {
		t.Fatal("expected an error for a bad signature")
	}
}

func TestDecodeRejectsUnsupportedFormat(t *testing.T) {
	data := buildLAS12(t, [][3]int32{{0, 0, 0}}, []uint8{0})
	data[104] = 99
	if _, err := Decode(bytes.NewReader(data)); err == nil {
		t.Fatal("expected an error for an unsupported point format")
	}
}

func TestEncodeLASRoundTripsThroughDecode(t *testing.T) {
	points := []RawPoint{
		{X: 1000000.125, Y: -500000.5, Z: 812.75, Classification: 2},
		{X: 1000010.0, Y: -499995.25, Z: 809.0, Classification: 9},
	}
	data := EncodeLAS(points)

	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(points) {
		t.Fatalf("got %d points, want %d", len(got), len(points))
	}
	for i, w := range points {
		g := got[i]
		if math.Abs(g.X-w.X) > encodeScale || math.Abs(g.Y-w.Y) > encodeScale || math.Abs(g.Z-w.Z) > encodeScale {
			t.Errorf("point %d = %+v, want ~%+v", i, g, w)
		}
		if g.Classification != w.Classification {
			t.Errorf("point %d classification = %d, want %d", i, g.Classification, w.Classification)
		}
	}
}

func TestEncodeLASEmptyBatch(t *testing.T) {
	data := EncodeLAS(nil)
	got, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d points, want 0", len(got))
	}
}

func TestBoundsReadsHeaderExtentWithoutDecodingPoints(t *testing.T) {
	data := buildLAS12(t, [][3]int32{{0, 0, 0}}, []uint8{0})
	putF64 := func(off int, v float64) {
		binary.LittleEndian.PutUint64(data[off:off+8], math.Float64bits(v))
	}
	putF64(179, 1000) // max x
	putF64(187, 100)  // min x
	putF64(195, 2000) // max y
	putF64(203, 200)  // min y

	// Truncate past the header so a point-record read would fail — Bounds
	// must never get that far.
	minX, minY, maxX, maxY, err := Bounds(bytes.NewReader(data[:227]))
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if minX != 100 || minY != 200 || maxX != 1000 || maxY != 2000 {
		t.Errorf("Bounds = (%v,%v,%v,%v), want (100,200,1000,2000)", minX, minY, maxX, maxY)
	}
}
