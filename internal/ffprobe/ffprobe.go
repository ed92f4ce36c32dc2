// Package ffprobe inspects and extracts subtitle streams from video
// containers via the ffprobe/ffmpeg CLIs, implementing internal/translator's
// Prober and StreamExtractor interfaces. Grounded on
// original_source/backend/ass_utils.py's run_ffprobe/extract_subtitle_stream
// and the teacher's internal/pkg/media use of internal/executils for
// cross-platform subprocess invocation.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sublarr/sublarr/internal/executils"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

type Prober struct {
	Timeout time.Duration
}

func New() *Prober {
	return &Prober{Timeout: 30 * time.Second}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Tags      map[string]string `json:"tags"`
}

// Streams runs ffprobe against videoPath and returns every subtitle stream
// it finds, normalized to subsutil.StreamInfo ("ass" covers ass/ssa codecs,
// "srt" covers subrip/mov_text/webvtt/microdvd).
func (p *Prober) Streams(ctx context.Context, videoPath string) ([]subsutil.StreamInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	cmd := executils.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		videoPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		return nil, fmt.Errorf("ffprobe json: %w", err)
	}

	var streams []subsutil.StreamInfo
	subIndex := 0
	for _, s := range parsed.Streams {
		if s.CodecType != "subtitle" {
			continue
		}
		format := normalizeSubtitleCodec(s.CodecName)
		if format == "" {
			continue
		}
		streams = append(streams, subsutil.StreamInfo{
			SubIndex:    subIndex,
			StreamIndex: s.Index,
			Format:      format,
			Language:    strings.ToLower(s.Tags["language"]),
			Title:       s.Tags["title"],
		})
		subIndex++
	}

	return streams, nil
}

func normalizeSubtitleCodec(codec string) string {
	switch strings.ToLower(codec) {
	case "ass", "ssa":
		return "ass"
	case "subrip", "srt", "mov_text", "webvtt", "text", "microdvd":
		return "srt"
	default:
		return ""
	}
}

// Extract pulls one subtitle stream out of a container via ffmpeg, writing
// to a temp file and reading it back as bytes.
func (p *Prober) Extract(ctx context.Context, videoPath string, stream subsutil.StreamInfo) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	ext := "srt"
	encoder := "srt"
	if stream.Format == "ass" {
		ext = "ass"
		encoder = "ass"
	}

	tmp, err := os.CreateTemp("", "sublarr-extract-*."+ext)
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	cmd := executils.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:s:%d", stream.SubIndex),
		"-c:s", encoder,
		tmpPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract: %w: %s", err, stderr.String())
	}

	return os.ReadFile(tmpPath)
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout <= 0 {
		return 30 * time.Second
	}
	return p.Timeout
}

// Duration probes a video file's length in seconds — used by the scanner
// to sanity-check a file is a real video before queuing it for subtitle
// search.
func (p *Prober) Duration(ctx context.Context, videoPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	cmd := executils.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return val, nil
}
