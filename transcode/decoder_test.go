package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

// buildWAV assembles a canonical 44-byte-header PCM WAV around raw sample bytes
func buildWAV(sampleRate, channels, bitDepth int, data []byte) []byte {
	var b bytes.Buffer
	blockAlign := channels * bitDepth / 8

	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&b, binary.LittleEndian, uint16(bitDepth))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)

	return b.Bytes()
}

func int16Samples(samples ...int16) []byte {
	var b bytes.Buffer
	for _, s := range samples {
		binary.Write(&b, binary.LittleEndian, s)
	}
	return b.Bytes()
}

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	cfg := config.DefaultDecoderConfig()
	cfg.TempDir = t.TempDir()
	return NewDecoder(cfg, 60*time.Second)
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestDecode16BitStereoDownmix(t *testing.T) {
	// L/R pairs
	data := int16Samples(
		16384, 0,
		-32768, -32768,
		1000, -1000,
	)
	wavData := buildWAV(16000, 2, 16, data)

	audio, err := newTestDecoder(t).DecodeBytes(context.Background(), wavData)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}

	if len(audio.PCM) != 3 {
		t.Fatalf("got %d frames, want 3", len(audio.PCM))
	}
	assertClose(t, "pcm[0]", audio.PCM[0], 0.25)
	assertClose(t, "pcm[1]", audio.PCM[1], -1.0)
	assertClose(t, "pcm[2]", audio.PCM[2], 0.0)

	if audio.Channels != 1 || audio.Metadata.SourceChannels != 2 {
		t.Errorf("channels = %d (source %d), want 1 (source 2)", audio.Channels, audio.Metadata.SourceChannels)
	}
	if audio.SampleRate != 16000 || audio.Metadata.BitDepth != 16 {
		t.Errorf("format = %d Hz / %d bit", audio.SampleRate, audio.Metadata.BitDepth)
	}
	if audio.Metadata.Transcoded {
		t.Error("PCM WAV should not be transcoded")
	}
}

func TestDecode8BitUnsigned(t *testing.T) {
	wavData := buildWAV(8000, 1, 8, []byte{128, 255, 0})

	audio, err := newTestDecoder(t).DecodeBytes(context.Background(), wavData)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}

	if len(audio.PCM) != 3 {
		t.Fatalf("got %d samples, want 3", len(audio.PCM))
	}
	assertClose(t, "silence", audio.PCM[0], 0.0)
	assertClose(t, "max", audio.PCM[1], 127.0/128.0)
	assertClose(t, "min", audio.PCM[2], -1.0)
}

func TestDecode32Bit(t *testing.T) {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, int32(1<<30))
	binary.Write(&b, binary.LittleEndian, int32(-1<<31))
	wavData := buildWAV(16000, 1, 32, b.Bytes())

	audio, err := newTestDecoder(t).DecodeBytes(context.Background(), wavData)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	assertClose(t, "half", audio.PCM[0], 0.5)
	assertClose(t, "min", audio.PCM[1], -1.0)
}

func TestDecodeUnsupportedBitDepth(t *testing.T) {
	wavData := buildWAV(16000, 1, 24, make([]byte, 3*100))

	_, err := newTestDecoder(t).DecodeBytes(context.Background(), wavData)

	var formatErr *UnsupportedFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if formatErr.BitDepth != 24 {
		t.Errorf("BitDepth = %d, want 24", formatErr.BitDepth)
	}
}

func TestDecodeDurationLimit(t *testing.T) {
	cfg := config.DefaultDecoderConfig()
	decoder := NewDecoder(cfg, time.Second)

	// 2 seconds at 8 kHz
	wavData := buildWAV(8000, 1, 16, make([]byte, 2*8000*2))

	_, err := decoder.DecodeBytes(context.Background(), wavData)

	var limitErr *DurationLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected DurationLimitError, got %v", err)
	}
	if limitErr.Limit != time.Second || limitErr.Duration != 2*time.Second {
		t.Errorf("limit error = %+v", limitErr)
	}
}

func TestDecodeFileSetsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, buildWAV(16000, 1, 16, int16Samples(0, 100, -100)), 0o644); err != nil {
		t.Fatal(err)
	}

	audio, err := newTestDecoder(t).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if audio.Metadata.Source != path {
		t.Errorf("Source = %q, want %q", audio.Metadata.Source, path)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := newTestDecoder(t).DecodeBytes(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestTranscodeMissingTool(t *testing.T) {
	cfg := config.DefaultDecoderConfig()
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	cfg.TempDir = t.TempDir()
	decoder := NewDecoder(cfg, 0)

	_, err := decoder.DecodeBytes(context.Background(), []byte("ID3 definitely not a wav file"))

	var transcodeErr *TranscodeError
	if !errors.As(err, &transcodeErr) {
		t.Fatalf("expected TranscodeError, got %v", err)
	}
	if transcodeErr.Tool != cfg.FFmpegPath {
		t.Errorf("Tool = %q", transcodeErr.Tool)
	}
}

func TestTranscodeFailureCleansUp(t *testing.T) {
	failing, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false binary not available")
	}

	cfg := config.DefaultDecoderConfig()
	cfg.FFmpegPath = failing
	cfg.TempDir = t.TempDir()
	decoder := NewDecoder(cfg, 0)

	_, err = decoder.DecodeBytes(context.Background(), []byte("OggS not a wav file either"))

	var transcodeErr *TranscodeError
	if !errors.As(err, &transcodeErr) {
		t.Fatalf("expected TranscodeError, got %v", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Errorf("TranscodeError should unwrap to *exec.ExitError, got %v", transcodeErr.Err)
	}

	entries, err := os.ReadDir(cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

// fakeFFmpeg writes a shell script that copies wavPath to its last argument,
// the output path ffmpeg would write
func fakeFFmpeg(t *testing.T, wavPath string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for ffmpeg needs a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "ffmpeg")
	body := "#!/bin/sh\nfor last; do :; done\ncp \"" + wavPath + "\" \"$last\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestTranscodeSuccessCleansUp(t *testing.T) {
	samples := make([]int16, 1600)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	wavPath := filepath.Join(t.TempDir(), "converted.wav")
	if err := os.WriteFile(wavPath, buildWAV(16000, 1, 16, int16Samples(samples...)), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultDecoderConfig()
	cfg.FFmpegPath = fakeFFmpeg(t, wavPath)
	cfg.TempDir = t.TempDir()
	decoder := NewDecoder(cfg, 0)

	audio, err := decoder.DecodeBytes(context.Background(), []byte("fLaC pretend compressed audio"))
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if !audio.Metadata.Transcoded {
		t.Error("Transcoded = false, want true")
	}
	if len(audio.PCM) != len(samples) || audio.SampleRate != 16000 {
		t.Errorf("got %d samples at %d Hz, want %d at 16000", len(audio.PCM), audio.SampleRate, len(samples))
	}

	entries, err := os.ReadDir(cfg.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %d", len(entries))
	}
}

func TestTranscodeErrorMessageIncludesStderr(t *testing.T) {
	err := &TranscodeError{Tool: "ffmpeg", Stderr: "  Invalid data found when processing input\n", Err: errors.New("exit status 1")}
	want := "transcode with ffmpeg failed: exit status 1: Invalid data found when processing input"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsPCMWav(t *testing.T) {
	if !IsPCMWav(buildWAV(16000, 1, 16, int16Samples(1, 2, 3))) {
		t.Error("PCM WAV not recognized")
	}
	if IsPCMWav([]byte("fLaC\x00\x00\x00\x22")) {
		t.Error("FLAC recognized as PCM WAV")
	}
}

func TestCheckDuration(t *testing.T) {
	if err := CheckDuration(16000, 16000, time.Second); err != nil {
		t.Errorf("exactly at limit should pass: %v", err)
	}
	if err := CheckDuration(16001, 16000, time.Second); err == nil {
		t.Error("over limit should fail")
	}
	if err := CheckDuration(1<<30, 16000, 0); err != nil {
		t.Errorf("zero limit disables the check: %v", err)
	}
}
