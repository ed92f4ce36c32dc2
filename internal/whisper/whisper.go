// Package whisper implements translator.WhisperSubmitter (spec §4.6 Case D):
// the last-resort fallback when no subtitle exists anywhere and no source
// stream can be extracted. A job is enqueued on the shared jobqueue.Queue
// rather than run synchronously, per SPEC_FULL.md's decision to treat
// Whisper re-entry as asynchronous. The worker posts the video's audio to an
// OpenAI-Whisper-compatible transcription server (the ambient deployment
// convention: whisper-asr-webservice / faster-whisper-server expose this
// same multipart endpoint), writes the returned SRT next to the video using
// the same "{base}.{lang}.srt" external-source convention translator.go's
// findExternalSourceSub already looks for, and the next wanted-pipeline pass
// re-enters the waterfall at Case C2b. Grounded on
// internal/providers/opensubtitles.go's http.Client idiom.
package whisper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/jobqueue"
)

// Client submits Whisper transcription jobs to the configured server.
type Client struct {
	APIURL     string
	Model      string
	client     *http.Client
	queue      jobqueue.Queue
	configHash func() string
	log        zerolog.Logger
}

func New(apiURL, model string, queue jobqueue.Queue, configHash func() string, log zerolog.Logger) *Client {
	return &Client{
		APIURL:     strings.TrimRight(apiURL, "/"),
		Model:      model,
		client:     &http.Client{Timeout: 30 * time.Minute},
		queue:      queue,
		configHash: configHash,
		log:        log.With().Str("component", "whisper").Logger(),
	}
}

// Submit enqueues a transcription job and returns its job id immediately;
// translator.Result.WhisperJobID carries this back to the caller as Case D's
// "whisper_pending" status.
func (c *Client) Submit(ctx context.Context, videoPath, sourceLanguage string) (string, error) {
	hash := ""
	if c.configHash != nil {
		hash = c.configHash()
	}
	jobID, err := c.queue.Enqueue(ctx, videoPath, hash, func(taskCtx context.Context, jobID string) error {
		return c.transcribe(taskCtx, videoPath, sourceLanguage)
	})
	if err != nil {
		return "", fmt.Errorf("enqueuing whisper job: %w", err)
	}
	return jobID, nil
}

// transcribe uploads videoPath to the transcription server and writes the
// SRT it returns to "{base}.{sourceLanguage}.srt" next to the video.
func (c *Client) transcribe(ctx context.Context, videoPath, sourceLanguage string) error {
	f, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFileNotFound, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio_file", filepath.Base(videoPath))
	if err != nil {
		return fmt.Errorf("building transcription request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading video for transcription: %w", err)
	}
	_ = mw.WriteField("output", "srt")
	if sourceLanguage != "" {
		_ = mw.WriteField("language", sourceLanguage)
	}
	if c.Model != "" {
		_ = mw.WriteField("model", c.Model)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building transcription request: %w", err)
	}

	url := fmt.Sprintf("%s/asr?output=srt", c.APIURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: whisper server unreachable: %v", apperrors.ErrProviderTransient, err)
	}
	defer resp.Body.Close()

	srt, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: whisper server returned %d: %s", apperrors.ErrProviderTransient, resp.StatusCode, strings.TrimSpace(string(srt)))
	}

	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	lang := sourceLanguage
	if lang == "" {
		lang = "und"
	}
	out := fmt.Sprintf("%s.%s.srt", base, lang)
	if err := os.WriteFile(out, srt, 0o644); err != nil {
		return fmt.Errorf("writing transcribed subtitle: %w", err)
	}
	c.log.Info().Str("video", videoPath).Str("output", out).Msg("whisper transcription complete")
	return nil
}
