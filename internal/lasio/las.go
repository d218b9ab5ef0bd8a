// Package lasio decodes uncompressed LAS point records. Full LASzip
// arithmetic decompression is outside this repository's scope, matching
// the external-interface boundary the point-record decoder is specified
// by; files are expected to have been de-compressed (or never compressed)
// by the tooling that populates the point sources this system reads from.
package lasio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// RawPoint is one decoded LAS point record prior to classification
// filtering or reprojection.
type RawPoint struct {
	X, Y, Z        float64
	Classification uint8
}

const lasSignature = "LASF"

// header holds the subset of the LAS public header block needed to locate
// and decode point records.
type header struct {
	headerSize       uint16
	offsetToPoints   uint32
	pointFormat      uint8
	pointRecordLen   uint16
	legacyNumPoints  uint32
	numPoints14      uint64
	scaleX, scaleY   float64
	scaleZ           float64
	offX, offY, offZ float64
	maxX, minX       float64
	maxY, minY       float64
}

func readHeader(r io.Reader) (header, error) {
	buf := make([]byte, 375)
	// Read the 227-byte LAS 1.2 part of the header, which every version
	// has; an input shorter than that is an error. The 1.4 fields beyond it
	// are only touched below when headerSize allows it.
	n, err := io.ReadFull(r, buf[:227])
	if err != nil {
		return header{}, fmt.Errorf("lasio: reading header: %w", err)
	}
	if n < 227 || string(buf[0:4]) != lasSignature {
		return header{}, fmt.Errorf("lasio: not a LAS file (bad signature)")
	}

	var h header
	h.headerSize = binary.LittleEndian.Uint16(buf[94:96])
	h.offsetToPoints = binary.LittleEndian.Uint32(buf[96:100])
	h.pointFormat = buf[104] & 0x7f // top bit flags LAZ compression
	compressed := buf[104]&0x80 != 0
	h.pointRecordLen = binary.LittleEndian.Uint16(buf[105:107])
	h.legacyNumPoints = binary.LittleEndian.Uint32(buf[107:111])
	h.scaleX = asFloat64(buf[131:139])
	h.scaleY = asFloat64(buf[139:147])
	h.scaleZ = asFloat64(buf[147:155])
	h.offX = asFloat64(buf[155:163])
	h.offY = asFloat64(buf[163:171])
	h.offZ = asFloat64(buf[171:179])
	h.maxX = asFloat64(buf[179:187])
	h.minX = asFloat64(buf[187:195])
	h.maxY = asFloat64(buf[195:203])
	h.minY = asFloat64(buf[203:211])

	if compressed {
		return header{}, fmt.Errorf("lasio: LAZ-compressed point records are not supported by this decoder")
	}

	// LAS 1.4 adds an 8-byte point count past the 227-byte 1.2/1.3 header;
	// read the remainder of the declared header to reach it if present.
	if h.headerSize > 227 {
		rest := make([]byte, int(h.headerSize)-227)
		if _, err := io.ReadFull(r, rest); err != nil {
			return header{}, fmt.Errorf("lasio: reading extended header: %w", err)
		}
		// Offset 247 in the full header ("number of point records", 8
		// bytes) falls at rest[247-227:255-227] when present.
		const numPoints14Off = 247 - 227
		if len(rest) >= numPoints14Off+8 {
			h.numPoints14 = binary.LittleEndian.Uint64(rest[numPoints14Off : numPoints14Off+8])
		}
	}
	return h, nil
}

func asFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

// Bounds reads just the public header block and returns the file's
// declared X/Y extent, without decoding any point records. This is the
// cheap path an indexer needs to place a file in a spatial index.
func Bounds(r io.Reader) (minX, minY, maxX, maxY float64, err error) {
	h, err := readHeader(r)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return h.minX, h.minY, h.maxX, h.maxY, nil
}

// Decode reads a full LAS stream and returns every point record. r must be
// positioned at the start of the file (the header is read first).
func Decode(r io.Reader) ([]RawPoint, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	// Skip from end of the header we consumed to the start of point data.
	consumed := int64(h.headerSize)
	if h.headerSize <= 227 {
		consumed = 227
	}
	skip := int64(h.offsetToPoints) - consumed
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("lasio: seeking to point data: %w", err)
		}
	}

	classOffset, recLen, err := layoutFor(h.pointFormat)
	if err != nil {
		return nil, err
	}
	if int(h.pointRecordLen) > recLen {
		recLen = int(h.pointRecordLen) // trust the declared length; extra bytes are extra VLR-defined fields we ignore
	}

	numPoints := h.legacyNumPoints
	if h.numPoints14 > 0 {
		numPoints = uint32(h.numPoints14)
	}

	out := make([]RawPoint, 0, numPoints)
	rec := make([]byte, recLen)
	for {
		if _, err := io.ReadFull(r, rec); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("lasio: reading point record: %w", err)
		}
		x := int32(binary.LittleEndian.Uint32(rec[0:4]))
		y := int32(binary.LittleEndian.Uint32(rec[4:8]))
		z := int32(binary.LittleEndian.Uint32(rec[8:12]))
		class := rec[classOffset]
		if h.pointFormat == 0 || h.pointFormat == 1 {
			class &= 0x1f // formats 0/1 pack classification into the low 5 bits
		}
		out = append(out, RawPoint{
			X:              float64(x)*h.scaleX + h.offX,
			Y:              float64(y)*h.scaleY + h.offY,
			Z:              float64(z)*h.scaleZ + h.offZ,
			Classification: class,
		})
	}
	return out, nil
}

// encodeScale is the fixed quantization step EncodeLAS writes, in the same
// units as the points passed to it (Web-Mercator meters for laztile's
// output): a millimeter, comfortably finer than any elevation raster this
// system produces.
const encodeScale = 0.001

// EncodeLAS writes points as a minimal LAS 1.2, point-data-format-0 file:
// the format Decode already understands, and the one laztile's bucket
// chunks are stored as. Coordinates are quantized against scale
// encodeScale with an offset chosen from the batch's own minimum, so every
// chunk keeps full precision regardless of its absolute position. The
// header's declared X/Y bounds are set from the batch too, so a file this
// writes can also be read back by Bounds alone, without decoding points.
func EncodeLAS(points []RawPoint) []byte {
	var offX, offY, offZ float64
	maxX, maxY := offX, offY
	if len(points) > 0 {
		offX, offY, offZ = points[0].X, points[0].Y, points[0].Z
		maxX, maxY = offX, offY
		for _, p := range points[1:] {
			offX = math.Min(offX, p.X)
			offY = math.Min(offY, p.Y)
			offZ = math.Min(offZ, p.Z)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	const headerSize = 227
	const recLen = 20
	buf := make([]byte, headerSize)
	copy(buf[0:4], lasSignature)
	buf[24], buf[25] = 1, 2 // version 1.2
	binary.LittleEndian.PutUint16(buf[94:96], headerSize)
	binary.LittleEndian.PutUint32(buf[96:100], headerSize)
	buf[104] = 0 // point data format 0, uncompressed
	binary.LittleEndian.PutUint16(buf[105:107], recLen)
	binary.LittleEndian.PutUint32(buf[107:111], uint32(len(points)))
	putF64 := func(off int, v float64) {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
	}
	putF64(131, encodeScale)
	putF64(139, encodeScale)
	putF64(147, encodeScale)
	putF64(155, offX)
	putF64(163, offY)
	putF64(171, offZ)
	putF64(179, maxX)
	putF64(187, offX)
	putF64(195, maxY)
	putF64(203, offY)

	out := make([]byte, 0, headerSize+len(points)*recLen)
	out = append(out, buf...)
	rec := make([]byte, recLen)
	for _, p := range points {
		clear(rec)
		qx := int32(math.Round((p.X - offX) / encodeScale))
		qy := int32(math.Round((p.Y - offY) / encodeScale))
		qz := int32(math.Round((p.Z - offZ) / encodeScale))
		binary.LittleEndian.PutUint32(rec[0:4], uint32(qx))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(qy))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(qz))
		rec[15] = p.Classification & 0x1f
		out = append(out, rec...)
	}
	return out
}

// layoutFor returns the classification byte offset and minimum record
// length for the point data formats this decoder supports.
func layoutFor(format uint8) (classOffset, recLen int, err error) {
	switch format {
	case 0:
		return 15, 20, nil
	case 1:
		return 15, 28, nil
	case 6:
		return 16, 30, nil
	case 7:
		return 16, 36, nil
	default:
		return 0, 0, fmt.Errorf("lasio: unsupported point data format %d (supported: 0, 1, 6, 7)", format)
	}
}
