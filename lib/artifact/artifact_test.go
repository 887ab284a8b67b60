// Copyright 2026 The Conveyor Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	// Repetitive content compresses under every algorithm.
	payload := bytes.Repeat([]byte("drift patch line\n"), 512)

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		tag := tag
		t.Run(tag.String(), func(t *testing.T) {
			t.Parallel()

			compressed, err := Compress(payload, tag)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if tag != CompressionNone && len(compressed) >= len(payload) {
				t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(payload))
			}

			decompressed, err := Decompress(compressed, tag, len(payload))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("round trip lost data")
			}
		})
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("abc"), 1000)
	compressed, err := Compress(payload, CompressionZstd)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(compressed, CompressionZstd, len(payload)-1); err == nil {
		t.Error("size mismatch not detected")
	}
}

func TestIncompressibleFallback(t *testing.T) {
	t.Parallel()

	// High-entropy data cannot shrink; WriteBlob must fall back to
	// CompressionNone and still round-trip.
	payload := make([]byte, 4096)
	state := uint32(2463534242)
	for i := range payload {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		payload[i] = byte(state)
	}

	path := filepath.Join(t.TempDir(), "blob")
	usedTag, err := WriteBlob(path, payload, CompressionZstd)
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if usedTag != CompressionNone {
		t.Errorf("used tag = %v, want fallback to none", usedTag)
	}

	read, err := ReadBlob(path)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(read, payload) {
		t.Error("round trip lost data")
	}
}

func TestParseCompressionTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    CompressionTag
		wantErr bool
	}{
		{input: "", want: CompressionZstd},
		{input: "zstd", want: CompressionZstd},
		{input: "lz4", want: CompressionLZ4},
		{input: "none", want: CompressionNone},
		{input: "gzip", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseCompressionTag(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseCompressionTag(%q) should fail", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCompressionTag(%q): %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseCompressionTag(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestPackUnpackDirectory(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	files := map[string]string{
		"binary/conveyor":  "#!/bin/sh\necho built\n",
		"docs/index.html":  "<html>built docs</html>\n",
		"manifest.json":    `{"version": "1.0.0"}` + "\n",
		"nested/deep/a.js": "console.log('a')\n",
	}
	for name, content := range files {
		path := filepath.Join(source, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	archivePath := filepath.Join(t.TempDir(), "build.cvar")
	if _, err := Pack(source, archivePath, CompressionZstd); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	destination := t.TempDir()
	if err := Unpack(archivePath, destination); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(destination, name))
		if err != nil {
			t.Errorf("missing %s after unpack: %v", name, err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s = %q, want %q", name, data, content)
		}
	}
}

func TestPackDeterministic(t *testing.T) {
	t.Parallel()

	source := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c/d.txt"} {
		path := filepath.Join(source, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(name+"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	firstPath := filepath.Join(t.TempDir(), "first.cvar")
	secondPath := filepath.Join(t.TempDir(), "second.cvar")
	if _, err := Pack(source, firstPath, CompressionZstd); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := Pack(source, secondPath, CompressionZstd); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	first, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	second, err := os.ReadFile(secondPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two packs of the same tree differ")
	}
}

func TestReadBlobRejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bogus")
	if err := os.WriteFile(path, []byte("NOTMAGIC12345678901234"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadBlob(path); err == nil || !strings.Contains(err.Error(), "bad magic") {
		t.Errorf("ReadBlob = %v, want bad magic error", err)
	}
}
