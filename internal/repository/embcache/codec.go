package embcache

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs v as little-endian float32, the layout the query engine uses for blobs.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks an encodeVector payload. dim > 0 additionally pins its length.
func decodeVector(data []byte, dim int) ([]float32, error) {
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("empty payload")
	case len(data)%4 != 0:
		return nil, fmt.Errorf("payload of %d bytes is not a float32 vector", len(data))
	case dim > 0 && len(data)/4 != dim:
		return nil, fmt.Errorf("cached vector has %d dimensions, want %d", len(data)/4, dim)
	}

	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
