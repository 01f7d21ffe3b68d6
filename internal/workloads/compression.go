// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// CODECS
// =============================================================================

// Codec is a lossless compression primitive.
type Codec struct {
	Name       string
	Compress   func(src []byte) ([]byte, error)
	Decompress func(src []byte) ([]byte, error)
}

// brotliQuality trades ratio for speed; the highest levels would dominate
// any run.
const brotliQuality = 5

// GzipCodec uses klauspost/compress gzip at the default level.
func GzipCodec() Codec {
	return Codec{
		Name: "gzip",
		Compress: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decompress: func(src []byte) ([]byte, error) {
			r, err := gzip.NewReader(bytes.NewReader(src))
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}

var (
	zstdEncoder  *zstd.Encoder
	zstdDecoder  *zstd.Decoder
	zstdInitErr  error
	zstdInitOnce sync.Once
)

// zstdCoders returns the shared encoder and decoder. EncodeAll and
// DecodeAll are safe for concurrent use.
func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdInitOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdInitErr
}

// ZstdCodec uses klauspost/compress zstd.
func ZstdCodec() Codec {
	return Codec{
		Name: "zstd",
		Compress: func(src []byte) ([]byte, error) {
			enc, _, err := zstdCoders()
			if err != nil {
				return nil, err
			}
			return enc.EncodeAll(src, nil), nil
		},
		Decompress: func(src []byte) ([]byte, error) {
			_, dec, err := zstdCoders()
			if err != nil {
				return nil, err
			}
			return dec.DecodeAll(src, nil)
		},
	}
}

// BrotliCodec uses andybalholm/brotli.
func BrotliCodec() Codec {
	return Codec{
		Name: "brotli",
		Compress: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := brotli.NewWriterLevel(&buf, brotliQuality)
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decompress: func(src []byte) ([]byte, error) {
			return io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
		},
	}
}

// CompressRoundTrip compresses and decompresses data and checks that the
// output length matches the input. It returns the compressed size.
func CompressRoundTrip(c Codec, data []byte) (int, error) {
	compressed, err := c.Compress(data)
	if err != nil {
		return 0, fmt.Errorf("%s compress: %w", c.Name, err)
	}
	out, err := c.Decompress(compressed)
	if err != nil {
		return 0, fmt.Errorf("%s decompress: %w", c.Name, err)
	}
	if len(out) != len(data) {
		return 0, fmt.Errorf("%s: decompressed %d bytes, want %d", c.Name, len(out), len(data))
	}
	return len(compressed), nil
}

// compressionWorkload round-trips workSize bytes of random data per replica.
// Inputs are generated in Prepare.
func compressionWorkload(id, name string, codec Codec, size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("%s round trip of %s random data", codec.Name, formatBytes(size)),
		Category:    benchmark.CategoryExternalPrimitive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, workSize int) (benchmark.RunFunc, error) {
			inputs := make([][]byte, replicas)
			for r := range inputs {
				inputs[r] = make([]byte, workSize)
				fillRandomBytes(NewReplicaRand(r), inputs[r])
			}
			return func(replica, _ int) error {
				_, err := CompressRoundTrip(codec, inputs[replica])
				return err
			}, nil
		},
	}
}
