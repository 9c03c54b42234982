package vectorstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// Cache object layout, little-endian:
//
//	magic "MVEC" | version u16 | fingerprint [32]byte | rows u32 | dims u32 |
//	rows*dims float32 | crc32 (IEEE) of all preceding bytes
const (
	cacheMagic   = "MVEC"
	cacheVersion = uint16(1)

	headerSize  = 4 + 2 + FingerprintSize + 4 + 4
	trailerSize = 4
)

func encodeVectors(v *Vectors) ([]byte, error) {
	rows := len(v.Rows)
	if uint64(rows) > math.MaxUint32 || uint64(v.Dims) > math.MaxUint32 {
		return nil, fmt.Errorf("vector shape %dx%d too large to cache", rows, v.Dims)
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+rows*v.Dims*4+trailerSize))
	buf.WriteString(cacheMagic)
	var scratch [4]byte
	binary.LittleEndian.PutUint16(scratch[:2], cacheVersion)
	buf.Write(scratch[:2])
	buf.Write(v.Fingerprint[:])
	binary.LittleEndian.PutUint32(scratch[:], uint32(rows))
	buf.Write(scratch[:])
	binary.LittleEndian.PutUint32(scratch[:], uint32(v.Dims))
	buf.Write(scratch[:])

	for i, row := range v.Rows {
		if len(row) != v.Dims {
			return nil, fmt.Errorf("row %d has dimension %d, expected %d", i, len(row), v.Dims)
		}
		for _, f := range row {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f))
			buf.Write(scratch[:])
		}
	}

	binary.LittleEndian.PutUint32(scratch[:], crc32.ChecksumIEEE(buf.Bytes()))
	buf.Write(scratch[:])
	return buf.Bytes(), nil
}

// decodeVectors parses a cache object. Every structural problem is reported as ErrCacheCorrupt.
func decodeVectors(r io.Reader) (*Vectors, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read cache object: %w", err)
	}
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrCacheCorrupt, len(data))
	}
	if string(data[:4]) != cacheMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCacheCorrupt, data[:4])
	}
	if ver := binary.LittleEndian.Uint16(data[4:6]); ver != cacheVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCacheCorrupt, ver)
	}

	v := &Vectors{}
	copy(v.Fingerprint[:], data[6:6+FingerprintSize])
	off := 6 + FingerprintSize
	rows := binary.LittleEndian.Uint32(data[off : off+4])
	dims := binary.LittleEndian.Uint32(data[off+4 : off+8])

	want := uint64(headerSize) + uint64(rows)*uint64(dims)*4 + trailerSize
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: size %d, expected %d for %dx%d", ErrCacheCorrupt, len(data), want, rows, dims)
	}

	body := data[:len(data)-trailerSize]
	if sum := binary.LittleEndian.Uint32(data[len(data)-trailerSize:]); sum != crc32.ChecksumIEEE(body) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCacheCorrupt)
	}

	v.Dims = int(dims)
	flat := make([]float32, int(rows)*v.Dims)
	payload := body[headerSize:]
	for i := range flat {
		flat[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	v.Rows = make([][]float32, rows)
	for i := range v.Rows {
		v.Rows[i] = flat[i*v.Dims : (i+1)*v.Dims : (i+1)*v.Dims]
	}
	return v, nil
}
