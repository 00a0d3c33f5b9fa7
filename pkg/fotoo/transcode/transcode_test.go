package transcode

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovToMp4Args(t *testing.T) {
	args := movToMp4Args("/work/in.mov", "/work/out.mp4")

	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-preset medium")
	assert.Contains(t, joined, "-crf 23")
	assert.Contains(t, joined, "-c:a aac")
	assert.Contains(t, joined, "-movflags +faststart")
	assert.Equal(t, "/work/out.mp4", args[len(args)-1])
}

func TestVideoThumbnailArgs(t *testing.T) {
	args := videoThumbnailArgs("/work/in.mp4", "/work/thumb.jpg", 1.5, 512)

	assert.Equal(t, []string{
		"-y",
		"-ss", "1.5",
		"-i", "/work/in.mp4",
		"-frames:v", "1",
		"-vf", "scale=512:-2",
		"-q:v", "3",
		"/work/thumb.jpg",
	}, args)
}

func TestImageThumbnailArgs(t *testing.T) {
	args := imageThumbnailArgs("/work/in.jpg", "/work/thumb.jpg", 512)
	assert.Contains(t, args, "scale=512:-2")
	assert.NotContains(t, args, "-ss")
}

func TestDockerRunArgs(t *testing.T) {
	args := dockerRunArgs("/tmp/job-1", "jrottenberg/ffmpeg:4.4-alpine", []string{"-i", "/work/in.mov"})

	assert.Equal(t, []string{
		"run", "--rm",
		"--network", "none",
		"-v", "/tmp/job-1:/work",
		"jrottenberg/ffmpeg:4.4-alpine",
		"-i", "/work/in.mov",
	}, args)
}

func TestWorkPaths(t *testing.T) {
	hostDir, cin, cout, err := workPaths("/tmp/job/in.mov", "/tmp/job/out.mp4")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/job", hostDir)
	assert.Equal(t, "/work/in.mov", cin)
	assert.Equal(t, "/work/out.mp4", cout)

	_, _, _, err = workPaths("/tmp/a/in.mov", "/tmp/b/out.mp4")
	assert.Error(t, err)
}

func TestThumbnailDims(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		target       int
		wantW, wantH int
	}{
		{"landscape downscale", 4032, 3024, 512, 512, 384},
		{"portrait downscale", 3024, 4032, 512, 512, 682},
		{"odd height rounds down", 1000, 333, 512, 512, 170},
		{"no upscale", 300, 200, 512, 300, 200},
		{"tiny source keeps minimum height", 1000, 2, 512, 512, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := thumbnailDims(tt.srcW, tt.srcH, tt.target)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Zero(t, h%2, "height must be even")
		})
	}
}

func TestLocalExtractImageThumbnail(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "thumb.jpg")

	src := imaging.New(1024, 768, color.White)
	require.NoError(t, imaging.Save(src, in))

	l := NewLocal()
	require.NoError(t, l.ExtractImageThumbnail(context.Background(), in, out, 512))

	thumb, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 512, thumb.Bounds().Dx())
	assert.Equal(t, 384, thumb.Bounds().Dy())
}

func TestLocalExtractImageThumbnailBadInput(t *testing.T) {
	l := NewLocal()
	err := l.ExtractImageThumbnail(context.Background(), filepath.Join(t.TempDir(), "missing.png"), "out.jpg", 512)
	require.Error(t, err)

	var cerr *ConversionError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, "imaging", cerr.Tool)
}

func TestConversionErrorFormatting(t *testing.T) {
	err := &ConversionError{Tool: "ffmpeg", Output: "moov atom not found\n", Err: errors.New("exit status 1")}
	assert.Contains(t, err.Error(), "ffmpeg conversion failed")
	assert.Contains(t, err.Error(), "moov atom not found")
	assert.ErrorContains(t, errors.Unwrap(err), "exit status 1")
}
