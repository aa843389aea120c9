package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/venice"
)

type speechOptions struct {
	voice  string
	format string
	out    string
	speed  float32
}

func (a *App) newSpeechCommand() *cobra.Command {
	var o speechOptions
	cmd := &cobra.Command{
		Use:   "speech <text>",
		Short: "Synthesize speech",
		Long: `Read text aloud with a text-to-speech model. Audio is streamed to the
output file as it is generated.

Examples:
  venice speech "Hello there"
  venice speech --voice am_adam --format wav --out hello.wav "Hello there"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSpeech(cmd.Context(), strings.Join(args, " "), o)
		},
	}
	cmd.Flags().StringVar(&o.voice, "voice", venice.DefaultVoice, "voice ID")
	cmd.Flags().StringVar(&o.format, "format", string(core.AudioFormatMP3), "mp3, opus, aac, flac, wav or pcm")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "output file (default: a new file in the output directory)")
	cmd.Flags().Float32Var(&o.speed, "speed", 0, "playback speed 0.25-4 (0 = default)")
	return cmd
}

func (a *App) runSpeech(ctx context.Context, text string, o speechOptions) (err error) {
	format := core.AudioFormat(o.format)
	path := o.out
	if path == "" {
		dir, err := a.outputDir("")
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "venice-"+uuid.NewString()+format.Extension())
	}

	p, err := a.provider()
	if err != nil {
		return err
	}
	req := &core.SpeechRequest{
		Model:          a.modelID(venice.DefaultSpeechModel),
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: format,
	}
	if o.speed > 0 {
		req.Speed = &o.speed
	}

	stream, err := a.client(p).StreamSpeech(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	f, err := os.Create(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	n := 0
	for chunk, err := range stream.All() {
		if err != nil {
			return err
		}
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		n += len(chunk)
	}
	return a.printSaved([]savedFile{{Path: path, Bytes: n}})
}
