// Package ffmpeg locates the ffprobe binary used to read media durations.
package ffmpeg

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

const (
	ReleaseVersion = "6.1"

	// PathEnv names an ffprobe binary to use as is
	PathEnv = "SPEAKERSYNC_FFPROBE_PATH"

	defaultBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
	maxArchiveSize = 256 << 20
)

// ffbinaries archive suffix per GOOS/GOARCH
var platformArchives = map[string]string{
	"linux/amd64":   "linux-64",
	"linux/arm64":   "linux-arm-64",
	"darwin/amd64":  "macos-64",
	"windows/amd64": "win-64",
}

var defaultPath = sync.OnceValues(func() (string, error) {
	return NewResolver().Resolve()
})

// FFprobePath resolves ffprobe once per process.
func FFprobePath() (string, error) {
	return defaultPath()
}

// Resolver finds ffprobe through PathEnv, then PATH, then its install
// cache, installing it from the embedded bundle or a release download
// when none is found.
type Resolver struct {
	CacheDir string
	BaseURL  string
	Client   *http.Client
	GOOS     string
	GOARCH   string

	lookPath     func(file string) (string, error)
	openEmbedded func(asset string) (io.ReadCloser, bool, error)
}

func NewResolver() *Resolver {
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = os.TempDir()
	}
	return &Resolver{
		CacheDir:     filepath.Join(cacheDir, "speakersync", "ffprobe"),
		BaseURL:      defaultBaseURL,
		Client:       &http.Client{Timeout: 5 * time.Minute},
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		lookPath:     exec.LookPath,
		openEmbedded: openEmbeddedAsset,
	}
}

func (r *Resolver) Resolve() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if found, err := lookPath("ffprobe"); err == nil {
		return found, nil
	}

	asset, err := probeAsset(r.GOOS, r.GOARCH)
	if err != nil {
		return "", err
	}
	target := r.installPath()
	if fileExists(target) {
		return target, nil
	}

	archive, err := r.fetchArchive(asset)
	if err != nil {
		return "", err
	}
	if err := installFromArchive(asset, archive, target); err != nil {
		return "", err
	}
	return target, nil
}

func (r *Resolver) installPath() string {
	name := "ffprobe"
	if r.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(r.CacheDir, ReleaseVersion, r.GOOS+"-"+r.GOARCH, name)
}

// embedded bundle first, then the release download
func (r *Resolver) fetchArchive(asset string) ([]byte, error) {
	var source io.ReadCloser
	if r.openEmbedded != nil {
		embedded, ok, err := r.openEmbedded(asset)
		if err != nil {
			return nil, err
		}
		if ok {
			source = embedded
		}
	}
	if source == nil {
		downloaded, err := r.download(asset)
		if err != nil {
			return nil, err
		}
		source = downloaded
	}
	defer func() { _ = source.Close() }()

	data, err := io.ReadAll(io.LimitReader(source, maxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", asset, err)
	}
	if len(data) > maxArchiveSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", asset, maxArchiveSize)
	}
	return data, nil
}

func (r *Resolver) download(asset string) (io.ReadCloser, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("%s/v%s/%s", strings.TrimSuffix(r.BaseURL, "/"), ReleaseVersion, asset)
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("download ffprobe bundle: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download ffprobe bundle: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func probeAsset(goos, goarch string) (string, error) {
	suffix, ok := platformArchives[goos+"/"+goarch]
	if !ok {
		return "", fmt.Errorf("unsupported platform for bundled ffprobe: %s/%s", goos, goarch)
	}
	return fmt.Sprintf("ffprobe-%s-%s.zip", ReleaseVersion, suffix), nil
}

// writes the archive's ffprobe entry to target as an executable
func installFromArchive(asset string, archive []byte, target string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("open %s: %w", asset, err)
	}
	entry, ok := lo.Find(zr.File, func(f *zip.File) bool {
		name := strings.ToLower(filepath.Base(f.Name))
		return name == "ffprobe" || name == "ffprobe.exe"
	})
	if !ok {
		return errors.New("ffprobe archive missing ffprobe binary")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create ffprobe cache dir: %w", err)
	}
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open ffprobe archive entry: %w", err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create ffprobe binary: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write ffprobe binary: %w", err)
	}
	return out.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
