package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer linear PCM
const wavFormatPCM = 1

// AudioData represents decoded mono audio
type AudioData struct {
	PCM        []float64      `json:"-"` // Mono samples in [-1, 1]
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"` // Always 1 after decoding
	Duration   time.Duration  `json:"duration"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata describes the source the samples came from
type AudioMetadata struct {
	Source         string `json:"source,omitempty"` // File path when decoded from disk
	SourceChannels int    `json:"source_channels"`
	BitDepth       int    `json:"bit_depth"`
	Transcoded     bool   `json:"transcoded"` // True when ffmpeg produced the WAV
}

// Decoder turns arbitrary audio into mono float PCM. Linear PCM WAV is parsed
// in-process; everything else is converted by ffmpeg first.
type Decoder struct {
	config      config.DecoderConfig
	maxDuration time.Duration
	logger      logging.Logger
}

// NewDecoder creates a decoder. maxDuration <= 0 disables the length check.
func NewDecoder(cfg config.DecoderConfig, maxDuration time.Duration) *Decoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.TargetSampleRate <= 0 {
		cfg.TargetSampleRate = 16000
	}

	return &Decoder{
		config:      cfg,
		maxDuration: maxDuration,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile decodes an audio file from disk
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	audio, err := d.DecodeBytes(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	audio.Metadata.Source = filename
	return audio, nil
}

// DecodeReader decodes audio read fully from r
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader) (*AudioData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	return d.DecodeBytes(ctx, data)
}

// DecodeBytes decodes an in-memory audio container
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte) (*AudioData, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":  "DecodeBytes",
		"data_size": len(data),
	})

	if len(data) == 0 {
		return nil, errors.New("empty audio data")
	}

	transcoded := false
	if !IsPCMWav(data) {
		logger.Debug("Input is not linear PCM WAV, transcoding")

		converted, err := d.transcode(ctx, data)
		if err != nil {
			logger.Error(err, "Transcoding failed")
			return nil, err
		}
		data = converted
		transcoded = true
	}

	audio, err := decodePCMWav(data)
	if err != nil {
		return nil, err
	}
	audio.Metadata.Transcoded = transcoded

	if err := CheckDuration(len(audio.PCM), audio.SampleRate, d.maxDuration); err != nil {
		return nil, err
	}

	logger.Debug("Audio decoded", logging.Fields{
		"sample_rate":     audio.SampleRate,
		"source_channels": audio.Metadata.SourceChannels,
		"bit_depth":       audio.Metadata.BitDepth,
		"duration":        audio.Duration.Seconds(),
		"transcoded":      transcoded,
	})

	return audio, nil
}

// IsPCMWav reports whether data is a RIFF/WAVE container holding integer PCM
func IsPCMWav(data []byte) bool {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return false
	}
	return dec.WavAudioFormat == wavFormatPCM
}

// decodePCMWav parses integer PCM WAV data, downmixing to mono
func decodePCMWav(data []byte) (*AudioData, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV data")
	}

	bitDepth := int(dec.BitDepth)
	var offset, scale float64
	switch bitDepth {
	case 8:
		// 8-bit WAV samples are stored unsigned
		offset, scale = 128, 128
	case 16:
		scale = 1 << 15
	case 32:
		scale = 1 << 31
	default:
		return nil, &UnsupportedFormatError{BitDepth: bitDepth}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	numFrames := len(buf.Data) / channels
	pcm := make([]float64, numFrames)
	for i := range numFrames {
		sum := 0.0
		for ch := range channels {
			sum += (float64(buf.Data[i*channels+ch]) - offset) / scale
		}
		pcm[i] = sum / float64(channels)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   1,
		Duration:   SamplesToDuration(numFrames, sampleRate),
		Metadata: &AudioMetadata{
			SourceChannels: channels,
			BitDepth:       bitDepth,
		},
	}, nil
}

// transcode converts data to 16-bit mono PCM WAV with ffmpeg. The input and
// output temp files are removed on every return path.
func (d *Decoder) transcode(ctx context.Context, data []byte) ([]byte, error) {
	tool := d.config.FFmpegPath
	if _, err := exec.LookPath(tool); err != nil {
		return nil, &TranscodeError{Tool: tool, Err: err}
	}

	input, err := os.CreateTemp(d.config.TempDir, "sonido-in-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp input: %w", err)
	}
	defer os.Remove(input.Name())

	if _, err := input.Write(data); err != nil {
		input.Close()
		return nil, fmt.Errorf("failed to write temp input: %w", err)
	}
	if err := input.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp input: %w", err)
	}

	output, err := os.CreateTemp(d.config.TempDir, "sonido-out-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp output: %w", err)
	}
	output.Close()
	defer os.Remove(output.Name())

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := []string{
		"-y",
		"-v", "error",
		"-i", input.Name(),
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		output.Name(),
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stderr = &stderr

	d.logger.Debug("Running ffmpeg command", logging.Fields{
		"command": fmt.Sprintf("%s %s", tool, strings.Join(args, " ")),
	})

	if err := cmd.Run(); err != nil {
		return nil, &TranscodeError{Tool: tool, Stderr: stderr.String(), Err: err}
	}

	converted, err := os.ReadFile(output.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read transcoded output: %w", err)
	}
	return converted, nil
}
