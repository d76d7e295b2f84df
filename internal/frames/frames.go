package frames

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/mediatypes"
	"media-catalog/internal/metrics"
)

// ErrToolUnavailable is returned when ffmpeg or ffprobe cannot be executed.
var ErrToolUnavailable = errors.New("video tool unavailable")

// DefaultTimeout bounds a single ffmpeg or ffprobe invocation.
const DefaultTimeout = 60 * time.Second

// seekOffset is where the frame is taken when the video is long enough;
// the very first frame is often black.
const seekOffset = time.Second

// VideoInfo contains information about a video file.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
}

// Extractor runs ffmpeg and ffprobe from configured paths.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates an Extractor. ffprobe is looked up next to ffmpeg when
// ffmpegPath contains a directory, and on PATH otherwise.
func New(ffmpegPath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := "ffprobe"
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		ffprobePath = filepath.Join(dir, "ffprobe")
	}
	return &Extractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     DefaultTimeout,
	}
}

// Available reports whether ffmpeg can be found.
func (e *Extractor) Available() bool {
	_, err := exec.LookPath(e.ffmpegPath)
	return err == nil
}

// FramePath returns where the first frame of videoPath is stored under destDir.
func FramePath(videoPath, destDir string) string {
	return filepath.Join(destDir, mediatypes.FirstFrameName(filepath.Base(videoPath)))
}

// ExtractFirstFrame writes the first frame of videoPath into destDir and
// returns its path. created is false when the frame already existed.
func (e *Extractor) ExtractFirstFrame(ctx context.Context, videoPath, destDir string) (path string, created bool, err error) {
	path = FramePath(videoPath, destDir)
	if _, err := os.Stat(path); err == nil {
		metrics.FrameExtractionsTotal.WithLabelValues("skipped").Inc()
		return path, false, nil
	}

	ffmpeg, err := exec.LookPath(e.ffmpegPath)
	if err != nil {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, e.ffmpegPath, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("create first frame directory: %w", err)
	}

	start := time.Now()

	// Hidden temp name so a concurrent walk never catalogs a partial frame.
	tmp := filepath.Join(destDir, "."+filepath.Base(path)+".tmp")
	defer os.Remove(tmp)

	seek := seekOffset
	if info, probeErr := e.Probe(ctx, videoPath); probeErr == nil && info.Duration < seekOffset.Seconds() {
		seek = 0
	}

	if err := e.runFFmpeg(ctx, ffmpeg, videoPath, tmp, seek); err != nil {
		if seek == 0 {
			metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
			return "", false, err
		}
		logging.Debug("FFmpeg seek extraction failed for %s: %v, retrying from start", videoPath, err)
		if err := e.runFFmpeg(ctx, ffmpeg, videoPath, tmp, 0); err != nil {
			metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
			return "", false, err
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		metrics.FrameExtractionsTotal.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("move first frame into place: %w", err)
	}

	metrics.FrameExtractionsTotal.WithLabelValues("success").Inc()
	metrics.FrameExtractionDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Extracted first frame of %s to %s in %v", videoPath, path, time.Since(start))
	return path, true, nil
}

func (e *Extractor) runFFmpeg(ctx context.Context, ffmpeg, videoPath, dest string, seek time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{"-v", "error"}
	if seek > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seek.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-y", dest,
	)

	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w - %s", err, stderr.String())
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no output for %s", videoPath)
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe retrieves duration, codec and dimensions of the first video stream.
func (e *Extractor) Probe(ctx context.Context, videoPath string) (*VideoInfo, error) {
	ffprobe, err := exec.LookPath(e.ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, e.ffprobePath, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Codec = s.CodecName
		info.Width = s.Width
		info.Height = s.Height
		return info, nil
	}
	return nil, fmt.Errorf("no video stream found")
}
