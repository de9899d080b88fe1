package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/randalmurphal/bugloc/internal/index"
)

// ErrCorrupt is returned when a cached entry cannot be decoded into a valid
// index.
var ErrCorrupt = errors.New("corrupt cache entry")

const formatVersion byte = 1

var magic = []byte("BLOC")

var (
	encoderOnce = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	decoderOnce = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Encode serialises idx as a versioned header followed by zstd-compressed
// JSON.
func Encode(idx *index.Index) ([]byte, error) {
	payload, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("marshal index: %w", err)
	}

	enc, err := encoderOnce()
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}

	header := make([]byte, 0, len(magic)+1)
	header = append(header, magic...)
	header = append(header, formatVersion)
	return enc.EncodeAll(payload, header), nil
}

// Decode reverses Encode. Any entry that is not a valid index, including one
// written by a different format version, yields ErrCorrupt.
func Decode(data []byte) (*index.Index, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrCorrupt, v)
	}

	dec, err := decoderOnce()
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	payload, err := dec.DecodeAll(data[len(magic)+1:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var idx index.Index
	if err := json.Unmarshal(payload, &idx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return &idx, nil
}
