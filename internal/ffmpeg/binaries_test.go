package ffmpeg

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func zipArchive(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func notOnPath(string) (string, error) {
	return "", errors.New("not found")
}

func TestProbeAsset(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{goos: "linux", goarch: "amd64", want: "ffprobe-6.1-linux-64.zip"},
		{goos: "linux", goarch: "arm64", want: "ffprobe-6.1-linux-arm-64.zip"},
		{goos: "windows", goarch: "amd64", want: "ffprobe-6.1-win-64.zip"},
		{goos: "plan9", goarch: "386", wantErr: true},
	}
	for _, tt := range tests {
		got, err := probeAsset(tt.goos, tt.goarch)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("probeAsset(%s, %s) = %q, %v", tt.goos, tt.goarch, got, err)
		}
	}
}

func TestInstallFromArchive(t *testing.T) {
	archive := zipArchive(t, "bundle/ffprobe", "#!/bin/sh\n")

	target := filepath.Join(t.TempDir(), "nested", "ffprobe")
	if err := installFromArchive("test.zip", archive, target); err != nil {
		t.Fatalf("installFromArchive failed: %v", err)
	}
	content, err := os.ReadFile(target)
	if err != nil || string(content) != "#!/bin/sh\n" {
		t.Errorf("unexpected binary content %q, %v", content, err)
	}
}

func TestInstallFromArchiveMissingBinary(t *testing.T) {
	archive := zipArchive(t, "README", "no binary here")
	if err := installFromArchive("test.zip", archive, filepath.Join(t.TempDir(), "ffprobe")); err == nil {
		t.Error("expected error when archive has no ffprobe")
	}
	if err := installFromArchive("test.zip", []byte("not a zip"), filepath.Join(t.TempDir(), "ffprobe")); err == nil {
		t.Error("expected error for a corrupt archive")
	}
}

func TestResolverPrefersOverrideAndPath(t *testing.T) {
	r := &Resolver{lookPath: func(string) (string, error) { return "/usr/bin/ffprobe", nil }}

	t.Setenv(PathEnv, "/opt/ffprobe")
	if got, err := r.Resolve(); err != nil || got != "/opt/ffprobe" {
		t.Errorf("Resolve() with override = %q, %v", got, err)
	}

	t.Setenv(PathEnv, "")
	if got, err := r.Resolve(); err != nil || got != "/usr/bin/ffprobe" {
		t.Errorf("Resolve() from PATH = %q, %v", got, err)
	}
}

func TestResolverDownloadsOnce(t *testing.T) {
	t.Setenv(PathEnv, "")
	archive := zipArchive(t, "ffprobe", "binary")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		if !strings.HasSuffix(req.URL.Path, "/v6.1/ffprobe-6.1-linux-64.zip") {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	r := &Resolver{
		CacheDir: t.TempDir(),
		BaseURL:  srv.URL,
		Client:   srv.Client(),
		GOOS:     "linux",
		GOARCH:   "amd64",
		lookPath: notOnPath,
	}

	for i := 0; i < 2; i++ {
		got, err := r.Resolve()
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got != r.installPath() {
			t.Errorf("Resolve() = %q, want %q", got, r.installPath())
		}
	}
	if hits.Load() != 1 {
		t.Errorf("downloaded %d times, want 1", hits.Load())
	}
}

func TestResolverUsesEmbeddedArchive(t *testing.T) {
	t.Setenv(PathEnv, "")
	archive := zipArchive(t, "ffprobe", "embedded")

	r := &Resolver{
		CacheDir: t.TempDir(),
		BaseURL:  "http://127.0.0.1:0",
		GOOS:     "linux",
		GOARCH:   "arm64",
		lookPath: notOnPath,
		openEmbedded: func(asset string) (io.ReadCloser, bool, error) {
			if asset != "ffprobe-6.1-linux-arm-64.zip" {
				return nil, false, nil
			}
			return io.NopCloser(bytes.NewReader(archive)), true, nil
		},
	}

	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	content, _ := os.ReadFile(got)
	if string(content) != "embedded" {
		t.Errorf("installed %q, want the embedded binary", content)
	}
}
