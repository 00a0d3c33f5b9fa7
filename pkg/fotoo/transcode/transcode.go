// Package transcode performs media format conversion and thumbnail
// extraction for the processing pipeline. Two interchangeable backends
// satisfy the Transcoder interface: a local one driving command-line
// tools directly, and a docker one that runs each invocation in a
// disposable, network-isolated container. The backend is a static
// configuration choice made at process startup.
package transcode

import (
	"context"
	"fmt"
	"strings"
)

// Transcoder converts media files and extracts thumbnails. Inputs and
// outputs are always local file paths, never in-memory buffers, so memory
// use stays bounded regardless of media size.
type Transcoder interface {
	// ConvertHeicToJpeg decodes a HEIC/HEIF image and writes a JPEG.
	ConvertHeicToJpeg(ctx context.Context, in, out string) error

	// ConvertMovToMp4 re-encodes a QuickTime container to web-playable
	// MP4: H.264 (preset medium, crf 23), AAC audio, faststart layout.
	ConvertMovToMp4(ctx context.Context, in, out string) error

	// ExtractImageThumbnail scales a still image to targetWidth,
	// preserving aspect ratio with an even computed height.
	ExtractImageThumbnail(ctx context.Context, in, out string, targetWidth int) error

	// ExtractVideoThumbnail seeks to atSeconds and extracts exactly one
	// frame, scaled the same way.
	ExtractVideoThumbnail(ctx context.Context, in, out string, atSeconds float64, targetWidth int) error

	// Name returns the backend name for logging
	Name() string
}

// ConversionError indicates the backend tool could not decode or encode
// the input. Terminal for the asset (except for thumbnail steps, which
// the pipeline treats as best-effort).
type ConversionError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s conversion failed: %v\n%s", e.Tool, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("%s conversion failed: %v", e.Tool, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// movToMp4Args returns the ffmpeg arguments for the fixed MOV→MP4 profile.
// Shared by both backends so they produce the same output format.
func movToMp4Args(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-c:v", "libx264", "-preset", "medium", "-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		out,
	}
}

// videoThumbnailArgs returns the ffmpeg arguments that seek to atSeconds
// and extract a single frame scaled to width with an even height (the -2
// scale operand; chroma subsampling requires even dimensions).
func videoThumbnailArgs(in, out string, atSeconds float64, width int) []string {
	return []string{
		"-y",
		"-ss", fmt.Sprintf("%g", atSeconds),
		"-i", in,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-q:v", "3",
		out,
	}
}

// imageThumbnailArgs returns the ffmpeg arguments that scale a still image
// to width with an even height.
func imageThumbnailArgs(in, out string, width int) []string {
	return []string{
		"-y",
		"-i", in,
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-q:v", "3",
		out,
	}
}
