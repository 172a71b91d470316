package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/RyanBlaney/sonido-tutor/config"
	"github.com/RyanBlaney/sonido-tutor/logging"
	"github.com/RyanBlaney/sonido-tutor/pronunciation"
	"github.com/RyanBlaney/sonido-tutor/transcode"
	"github.com/RyanBlaney/sonido-tutor/voice"
)

var (
	version = "0.0.1"
)

// Globals are shared by every command
type Globals struct {
	Config   string           `short:"c" type:"existingfile" help:"Path to YAML config file (optional)"`
	LogLevel string           `help:"Log level: debug, info, warn, error (overrides config)"`
	Version  kong.VersionFlag `short:"v" help:"Show version information"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Compare CompareCmd `cmd:"" help:"Score an attempt against a reference recording"`
	Timing  TimingCmd  `cmd:"" help:"Score fluency and pace from ASR word timings"`
	Quality QualityCmd `cmd:"" help:"Estimate speech quality from a recording alone"`
}

type CompareCmd struct {
	Reference string `arg:"" type:"existingfile" help:"Reference recording"`
	Attempt   string `arg:"" type:"existingfile" help:"Attempt recording"`
	Text      string `help:"Target phrase, echoed in the result"`
}

type TimingCmd struct {
	Timings  string  `arg:"" type:"existingfile" help:"JSON file with [{word,start,end,confidence}]"`
	Duration float64 `help:"Recording length in seconds (default: span of the words)"`
}

type QualityCmd struct {
	Audio string `arg:"" type:"existingfile" help:"Recording to analyze"`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("sonido-tutor"),
		kong.Description("Pronunciation comparison and voice scoring"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	cfg, err := loadConfig(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctx.BindTo(runCtx, (*context.Context)(nil))
	ctx.FatalIfErrorf(ctx.Run(cfg))
}

// loadConfig reads the optional YAML file and installs a stderr logger at
// the configured level
func loadConfig(g *Globals) (*config.Config, error) {
	cfg := config.Default()
	if g.Config != "" {
		loaded, err := config.Load(g.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logging.SetGlobalLogger(logging.NewWriterLogger(os.Stderr, level))

	return cfg, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// compareOutput adds the 0-100 rendering of the unit-scale score
type compareOutput struct {
	*pronunciation.Assessment
	ScorePercent float64 `json:"score_percent"`
}

func (c *CompareCmd) Run(ctx context.Context, cfg *config.Config) error {
	result, err := pronunciation.NewAssessor(cfg).AssessFiles(ctx, c.Reference, c.Attempt, c.Text)
	if err != nil {
		return err
	}
	return printJSON(compareOutput{
		Assessment:   result,
		ScorePercent: result.Metrics.PronunciationScore.Percent(),
	})
}

type timingOutput struct {
	*voice.VoiceAnalysis
	ScorePercent float64 `json:"score_percent"`
}

func (c *TimingCmd) Run(cfg *config.Config) error {
	data, err := os.ReadFile(c.Timings)
	if err != nil {
		return fmt.Errorf("failed to read timings: %w", err)
	}

	var words []voice.WordTiming
	if err := json.Unmarshal(data, &words); err != nil {
		return fmt.Errorf("failed to parse timings %s: %w", c.Timings, err)
	}

	analysis, err := voice.NewWordTimingAnalyzer(cfg.Timing).Analyze(words, c.Duration)
	if err != nil {
		return err
	}
	return printJSON(timingOutput{
		VoiceAnalysis: analysis,
		ScorePercent:  analysis.Overall().Percent(),
	})
}

func (c *QualityCmd) Run(ctx context.Context, cfg *config.Config) error {
	audio, err := transcode.NewDecoder(cfg.Decoder, cfg.MaxDuration()).DecodeFile(ctx, c.Audio)
	if err != nil {
		return err
	}

	quality := voice.NewSignalQualityAnalyzer(cfg.Quality, cfg.Features.Pitch)
	result, err := voice.NewSpeakerAnalyzer(quality, nil).Analyze(ctx, audio.PCM, audio.SampleRate)
	if err != nil {
		return err
	}
	return printJSON(result)
}
