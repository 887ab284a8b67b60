// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File format magics. Four ASCII bytes plus a format version digit,
// inspectable in hex dumps.
var (
	archiveMagic = [5]byte{'C', 'V', 'A', 'R', '1'}
	blobMagic    = [5]byte{'C', 'V', 'B', 'L', '1'}
)

// header layout after the magic: 1-byte compression tag, 8-byte
// little-endian uncompressed size.
const headerSize = 5 + 1 + 8

// Pack archives the directory at root into a single compressed file
// at outputPath. Entries are written in sorted path order with zeroed
// timestamps, so the same tree always produces identical bytes.
// Incompressible content silently falls back to CompressionNone; the
// tag actually used is recorded in the header and returned.
func Pack(root, outputPath string, tag CompressionTag) (CompressionTag, error) {
	var entries []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			entries = append(entries, path)
		}
		return nil
	})
	if walkErr != nil {
		return 0, fmt.Errorf("walking %s: %w", root, walkErr)
	}
	sort.Strings(entries)

	var tarBuffer bytes.Buffer
	writer := tar.NewWriter(&tarBuffer)
	for _, path := range entries {
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return 0, fmt.Errorf("relativizing %s: %w", path, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stating %s: %w", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}

		// Fixed metadata: only path, mode, and content are
		// preserved. Timestamps and ownership would make the archive
		// nondeterministic without serving any consumer.
		header := &tar.Header{
			Name: filepath.ToSlash(relative),
			Mode: int64(info.Mode().Perm()),
			Size: int64(len(data)),
		}
		if err := writer.WriteHeader(header); err != nil {
			return 0, fmt.Errorf("writing tar header for %s: %w", relative, err)
		}
		if _, err := writer.Write(data); err != nil {
			return 0, fmt.Errorf("writing tar data for %s: %w", relative, err)
		}
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("closing tar stream: %w", err)
	}

	return writeFramed(outputPath, archiveMagic, tarBuffer.Bytes(), tag)
}

// Unpack extracts an archive produced by Pack into destination,
// creating it if needed. Entry paths are confined to the destination
// directory; an entry that would escape it is an error.
func Unpack(archivePath, destination string) error {
	payload, err := readFramed(archivePath, archiveMagic)
	if err != nil {
		return err
	}

	reader := tar.NewReader(bytes.NewReader(payload))
	for {
		header, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry from %s: %w", archivePath, err)
		}

		target := filepath.Join(destination, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destination)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", header.Name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", header.Name, err)
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("reading tar data for %s: %w", header.Name, err)
		}
		mode := fs.FileMode(header.Mode).Perm()
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(target, data, mode); err != nil {
			return fmt.Errorf("writing %s: %w", header.Name, err)
		}
	}
}

// WriteBlob writes a single payload (e.g. a drift patch) to path with
// the framed compressed format. Returns the compression tag actually
// used after incompressible fallback.
func WriteBlob(path string, data []byte, tag CompressionTag) (CompressionTag, error) {
	return writeFramed(path, blobMagic, data, tag)
}

// ReadBlob reads a payload written by WriteBlob.
func ReadBlob(path string) ([]byte, error) {
	return readFramed(path, blobMagic)
}

// writeFramed compresses payload and writes magic, tag, uncompressed
// size, and the compressed bytes to path.
func writeFramed(path string, magic [5]byte, payload []byte, tag CompressionTag) (CompressionTag, error) {
	compressed, usedTag, err := compressWithFallback(payload, tag)
	if err != nil {
		return 0, fmt.Errorf("compressing %s: %w", path, err)
	}

	buffer := make([]byte, headerSize, headerSize+len(compressed))
	copy(buffer, magic[:])
	buffer[5] = byte(usedTag)
	binary.LittleEndian.PutUint64(buffer[6:], uint64(len(payload)))
	buffer = append(buffer, compressed...)

	if err := os.WriteFile(path, buffer, 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return usedTag, nil
}

// readFramed reads a framed file, verifies the magic, and returns the
// decompressed payload.
func readFramed(path string, magic [5]byte) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%s: truncated header (%d bytes)", path, len(data))
	}
	if !bytes.Equal(data[:5], magic[:]) {
		return nil, fmt.Errorf("%s: bad magic %q", path, data[:5])
	}

	tag := CompressionTag(data[5])
	uncompressedSize := binary.LittleEndian.Uint64(data[6:])

	payload, err := Decompress(data[headerSize:], tag, int(uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return payload, nil
}
