//go:build ffmpeg_embedded

package ffmpeg

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// release archives named like probeAsset, e.g. assets/ffprobe-6.1-linux-64.zip
//
//go:embed assets/ffprobe-*.zip
var probeArchives embed.FS

// opens a bundled ffprobe archive; false when this build carries none for it
func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	f, err := probeArchives.Open(path.Join("assets", name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("open bundled %s: %w", name, err)
	}
	return f, true, nil
}
