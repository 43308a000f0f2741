package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("lazio %s: error = %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func writePoints(t *testing.T, path string, n, size int) []byte {
	t.Helper()
	data := make([]byte, n*size)
	for i := range data {
		data[i] = byte(i * 13)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return data
}

func TestCLI_CompressInfoDecompressAppend(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "points.bin")
	more := filepath.Join(dir, "more.bin")
	stream := filepath.Join(dir, "points.lzck")
	out := filepath.Join(dir, "out.bin")

	first := writePoints(t, raw, 300, 12)
	second := writePoints(t, more, 50, 12)

	got := run(t, "compress", raw, stream, "--point-size", "12", "--chunk-size", "100", "--codec", "gzip", "--workers", "2")
	if !strings.Contains(got, "Points:  300") {
		t.Errorf("compress output = %q, want it to report 300 points", got)
	}

	got = run(t, "info", stream, "--chunks")
	for _, want := range []string{"Codec:       gzip", "Point size:  12", "Chunks:      3"} {
		if !strings.Contains(got, want) {
			t.Errorf("info output missing %q:\n%s", want, got)
		}
	}

	run(t, "decompress", stream, out)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(data, first) {
		t.Errorf("decompressed %d bytes, want the %d compressed", len(data), len(first))
	}

	got = run(t, "append", stream, more)
	if !strings.Contains(got, "Points:  350") {
		t.Errorf("append output = %q, want it to report 350 points", got)
	}

	run(t, "decompress", stream, out, "--first", "290", "--count", "20")
	data, err = os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := append(append([]byte{}, first[290*12:]...), second[:10*12]...)
	if !bytes.Equal(data, want) {
		t.Errorf("range decompress = %v, want %v", data, want)
	}
}

func TestCLI_Bench(t *testing.T) {
	got := run(t, "bench", "--size", "8192", "--block", "512", "--passes", "2", "--format", "markdown")
	if !strings.Contains(got, "# Read path latency") {
		t.Errorf("bench output missing report title:\n%s", got)
	}
	for _, p := range []string{"zero-copy", "copy", "buffered"} {
		if !strings.Contains(got, "| "+p+" |") {
			t.Errorf("bench output missing row for %s", p)
		}
	}
}
