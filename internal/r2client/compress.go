package r2client

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ContentTypeZstd is the content type of compressed snapshots.
const ContentTypeZstd = "application/zstd"

// Compress returns the zstd encoding of data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("compress: create encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("compress: write: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("compress: close encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressStream copies the decoded zstd stream r into w.
func DecompressStream(r io.Reader, w io.Writer) (int64, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("decompress: create decoder: %w", err)
	}
	defer decoder.Close()

	n, err := io.Copy(w, decoder)
	if err != nil {
		return n, fmt.Errorf("decompress: copy: %w", err)
	}
	return n, nil
}
