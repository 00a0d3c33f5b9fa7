package transcode

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/disintegration/imaging"
)

// Local drives command-line tools on the worker host directly: ffmpeg for
// video work and HEIC decoding, the imaging library for still-image
// thumbnails.
type Local struct {
	// FFmpegPath overrides the ffmpeg binary looked up on PATH.
	FFmpegPath string
}

// NewLocal creates a local transcoder backend.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() string { return "local" }

func (l *Local) ffmpeg() string {
	if l.FFmpegPath != "" {
		return l.FFmpegPath
	}
	return "ffmpeg"
}

func (l *Local) run(ctx context.Context, args []string) error {
	bin := l.ffmpeg()
	if _, err := exec.LookPath(bin); err != nil {
		return &ConversionError{Tool: "ffmpeg", Err: fmt.Errorf("not found in PATH: %w", err)}
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ConversionError{Tool: "ffmpeg", Output: string(out), Err: err}
	}
	return nil
}

func (l *Local) ConvertHeicToJpeg(ctx context.Context, in, out string) error {
	// ffmpeg built with libheif decodes HEIC directly.
	return l.run(ctx, []string{"-y", "-i", in, "-q:v", "2", out})
}

func (l *Local) ConvertMovToMp4(ctx context.Context, in, out string) error {
	return l.run(ctx, movToMp4Args(in, out))
}

func (l *Local) ExtractImageThumbnail(ctx context.Context, in, out string, targetWidth int) error {
	src, err := imaging.Open(in, imaging.AutoOrientation(true))
	if err != nil {
		return &ConversionError{Tool: "imaging", Err: fmt.Errorf("open: %w", err)}
	}

	b := src.Bounds()
	w, h := thumbnailDims(b.Dx(), b.Dy(), targetWidth)
	thumb := imaging.Resize(src, w, h, imaging.Lanczos)

	if err := imaging.Save(thumb, out); err != nil {
		return &ConversionError{Tool: "imaging", Err: fmt.Errorf("save: %w", err)}
	}
	return nil
}

func (l *Local) ExtractVideoThumbnail(ctx context.Context, in, out string, atSeconds float64, targetWidth int) error {
	return l.run(ctx, videoThumbnailArgs(in, out, atSeconds, targetWidth))
}

// DefaultThumbnailWidth is the target width for derived thumbnails.
const DefaultThumbnailWidth = 512

// thumbnailDims computes output dimensions for a width-driven scale,
// preserving aspect ratio and rounding the height down to an even number.
// The even-height rule comes from video codec chroma subsampling and is
// applied to still images too, so both backends produce uniform shapes.
// Sources narrower than the target are not upscaled.
func thumbnailDims(srcW, srcH, targetWidth int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return targetWidth, targetWidth
	}
	w := targetWidth
	if srcW < targetWidth {
		w = srcW
	}
	h := srcH * w / srcW
	if h%2 != 0 {
		h--
	}
	if h < 2 {
		h = 2
	}
	return w, h
}
