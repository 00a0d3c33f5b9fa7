package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Default container images for the docker backend.
const (
	DefaultHeicImage   = "heic-converter"
	DefaultFFmpegImage = "jrottenberg/ffmpeg:4.4-alpine"
)

// Docker runs every invocation in a disposable container with the job's
// working directory bind-mounted at /work and networking disabled, so
// untrusted media payloads cannot reach the host filesystem or network.
// Input and output must live in the same directory; the pipeline keeps
// one temp dir per job, which satisfies that.
type Docker struct {
	HeicImage   string
	FFmpegImage string
}

// NewDocker creates a docker transcoder backend with the default images.
func NewDocker() *Docker {
	return &Docker{
		HeicImage:   DefaultHeicImage,
		FFmpegImage: DefaultFFmpegImage,
	}
}

func (d *Docker) Name() string { return "docker" }

// dockerRunArgs builds the docker invocation for one containerized tool run.
func dockerRunArgs(hostDir, image string, toolArgs []string) []string {
	args := []string{
		"run", "--rm",
		"--network", "none",
		"-v", hostDir + ":/work",
		image,
	}
	return append(args, toolArgs...)
}

func (d *Docker) run(ctx context.Context, hostDir, image string, toolArgs []string) error {
	cmd := exec.CommandContext(ctx, "docker", dockerRunArgs(hostDir, image, toolArgs)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ConversionError{Tool: image, Output: string(out), Err: err}
	}
	return nil
}

// workPaths maps in/out to their /work-relative container paths, enforcing
// the shared-directory requirement.
func workPaths(in, out string) (hostDir, cin, cout string, err error) {
	hostDir = filepath.Dir(in)
	if filepath.Dir(out) != hostDir {
		return "", "", "", fmt.Errorf("input %s and output %s must share a directory", in, out)
	}
	return hostDir, "/work/" + filepath.Base(in), "/work/" + filepath.Base(out), nil
}

func (d *Docker) ConvertHeicToJpeg(ctx context.Context, in, out string) error {
	hostDir, cin, cout, err := workPaths(in, out)
	if err != nil {
		return &ConversionError{Tool: d.HeicImage, Err: err}
	}
	return d.run(ctx, hostDir, d.HeicImage, []string{cin, cout})
}

func (d *Docker) ConvertMovToMp4(ctx context.Context, in, out string) error {
	hostDir, cin, cout, err := workPaths(in, out)
	if err != nil {
		return &ConversionError{Tool: d.FFmpegImage, Err: err}
	}
	return d.run(ctx, hostDir, d.FFmpegImage, movToMp4Args(cin, cout))
}

func (d *Docker) ExtractImageThumbnail(ctx context.Context, in, out string, targetWidth int) error {
	hostDir, cin, cout, err := workPaths(in, out)
	if err != nil {
		return &ConversionError{Tool: d.FFmpegImage, Err: err}
	}
	return d.run(ctx, hostDir, d.FFmpegImage, imageThumbnailArgs(cin, cout, targetWidth))
}

func (d *Docker) ExtractVideoThumbnail(ctx context.Context, in, out string, atSeconds float64, targetWidth int) error {
	hostDir, cin, cout, err := workPaths(in, out)
	if err != nil {
		return &ConversionError{Tool: d.FFmpegImage, Err: err}
	}
	return d.run(ctx, hostDir, d.FFmpegImage, videoThumbnailArgs(cin, cout, atSeconds, targetWidth))
}
