package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/freemapslovakia/lazdem/internal/raster"
)

// DEM payloads are a tiny fixed header (tile dimensions) followed by the
// grid's values as little-endian float32, the whole thing wrapped in a
// zstd frame. NaN marks "outside the triangulated hull" and round-trips
// through float32 exactly, same as it does through float64.

var demZstdEncoderPool = newZstdEncoderPool()

// EncodeDEM serializes a grid to its compressed wire format.
func EncodeDEM(grid *raster.Grid) ([]byte, error) {
	var raw bytes.Buffer
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(grid.Cols))
	binary.LittleEndian.PutUint32(header[4:8], uint32(grid.Rows))
	raw.Write(header)

	valBuf := make([]byte, 4)
	for _, v := range grid.Data {
		binary.LittleEndian.PutUint32(valBuf, math.Float32bits(float32(v)))
		raw.Write(valBuf)
	}

	enc := demZstdEncoderPool.get()
	defer demZstdEncoderPool.put(enc)
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

// DecodeDEM parses a grid back out of its compressed wire format.
func DecodeDEM(data []byte) (*raster.Grid, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("payload: creating zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("payload: decompressing DEM payload: %w", err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("payload: DEM payload too short (%d bytes)", len(raw))
	}
	cols := int(binary.LittleEndian.Uint32(raw[0:4]))
	rows := int(binary.LittleEndian.Uint32(raw[4:8]))
	want := 8 + cols*rows*4
	if len(raw) != want {
		return nil, fmt.Errorf("payload: DEM payload size mismatch: got %d bytes, want %d for %dx%d", len(raw), want, cols, rows)
	}

	grid := raster.NewGrid(cols, rows)
	body := raw[8:]
	for i := range grid.Data {
		bits := binary.LittleEndian.Uint32(body[i*4 : i*4+4])
		grid.Data[i] = float64(math.Float32frombits(bits))
	}
	return grid, nil
}

// zstdEncoderPool amortizes the cost of zstd.NewWriter across many small
// DEM tile encodes, which otherwise dominates encode time at this payload
// size.
type zstdEncoderPool struct {
	ch chan *zstd.Encoder
}

func newZstdEncoderPool() *zstdEncoderPool {
	return &zstdEncoderPool{ch: make(chan *zstd.Encoder, 8)}
}

func (p *zstdEncoderPool) get() *zstd.Encoder {
	select {
	case enc := <-p.ch:
		return enc
	default:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			// zstd.NewWriter only fails on invalid options, never here.
			panic(err)
		}
		return enc
	}
}

func (p *zstdEncoderPool) put(enc *zstd.Encoder) {
	select {
	case p.ch <- enc:
	default:
	}
}
