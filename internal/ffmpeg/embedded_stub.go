//go:build !ffmpeg_embedded

package ffmpeg

import "io"

// without the ffmpeg_embedded tag the binaries are found on PATH or downloaded
func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	return nil, false, nil
}
