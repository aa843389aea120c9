package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/venice"
)

// maxParallelImages bounds concurrent generate calls for --count.
const maxParallelImages = 4

type imageOptions struct {
	count    int
	out      string
	width    int
	height   int
	style    string
	format   string
	negative string
}

// savedFile is the JSON shape of a file the CLI wrote.
type savedFile struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func (a *App) newImageCommand() *cobra.Command {
	var o imageOptions
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate images",
		Long: `Generate images from a text prompt and save them to disk.

Examples:
  venice image "a lighthouse at dusk"
  venice image --count 4 --style "Anime" --out ./renders "a fox"
  venice image styles
  venice image upscale photo.png --scale 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImage(cmd.Context(), strings.Join(args, " "), o)
		},
	}
	cmd.PersistentFlags().StringVar(&o.out, "out", "", "output directory (default from config)")
	cmd.Flags().IntVarP(&o.count, "count", "n", 1, "number of images, generated in parallel")
	cmd.Flags().IntVar(&o.width, "width", 0, "width in pixels")
	cmd.Flags().IntVar(&o.height, "height", 0, "height in pixels")
	cmd.Flags().StringVar(&o.style, "style", "", "style preset (see 'venice image styles')")
	cmd.Flags().StringVar(&o.format, "format", "", "png, jpeg or webp")
	cmd.Flags().StringVar(&o.negative, "negative", "", "negative prompt")

	cmd.AddCommand(a.newImageStylesCommand())
	cmd.AddCommand(a.newUpscaleCommand(&o.out))
	return cmd
}

func (a *App) outputDir(flag string) (string, error) {
	dir := flag
	if dir == "" {
		dir = a.cfg.OutputDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", exitWithCode(ExitValidation, fmt.Errorf("create output directory: %w", err))
	}
	return dir, nil
}

func (a *App) runImage(ctx context.Context, prompt string, o imageOptions) error {
	format := core.ImageFormat(o.format)
	if o.format != "" && !format.IsValid() {
		return exitWithCode(ExitValidation, fmt.Errorf("invalid --format %q: want png, jpeg or webp", o.format))
	}
	if o.count < 1 {
		return exitWithCode(ExitValidation, fmt.Errorf("--count must be at least 1"))
	}
	dir, err := a.outputDir(o.out)
	if err != nil {
		return err
	}
	p, err := a.provider()
	if err != nil {
		return err
	}
	client := a.client(p)

	req := &core.ImageGenerateRequest{
		Model:          a.modelID(venice.ModelHiDream),
		Prompt:         prompt,
		NegativePrompt: o.negative,
		Width:          o.width,
		Height:         o.height,
		StylePreset:    o.style,
		Format:         format,
	}

	results := make([]*core.ImageResponse, o.count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelImages)
	for i := range o.count {
		g.Go(func() error {
			resp, err := client.GenerateImage(gctx, req)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var saved []savedFile
	for _, resp := range results {
		for _, img := range resp.Data {
			data, err := img.GetBytes()
			if err != nil {
				return fmt.Errorf("decode image: %w", err)
			}
			if data == nil {
				a.logger.Warn("image returned by URL, not saved")
				continue
			}
			path := filepath.Join(dir, "venice-"+uuid.NewString()+format.Extension())
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			saved = append(saved, savedFile{Path: path, Bytes: len(data)})
		}
	}
	return a.printSaved(saved)
}

func (a *App) printSaved(saved []savedFile) error {
	if a.jsonOutput {
		return a.writeJSON(saved)
	}
	for _, f := range saved {
		fmt.Fprintf(a.stdout, "Saved %s (%d bytes)\n", f.Path, f.Bytes)
	}
	return nil
}

func (a *App) newImageStylesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List image style presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			styles, err := p.ImageStyles(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(styles)
			}
			for _, s := range styles {
				fmt.Fprintln(a.stdout, s)
			}
			return nil
		},
	}
}

func (a *App) newUpscaleCommand(out *string) *cobra.Command {
	var (
		scale   float64
		enhance bool
		prompt  string
	)
	cmd := &cobra.Command{
		Use:   "upscale <file>",
		Short: "Upscale an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			dir, err := a.outputDir(*out)
			if err != nil {
				return err
			}
			p, err := a.provider()
			if err != nil {
				return err
			}

			req := &venice.UpscaleRequest{Image: src, Scale: scale, EnhancePrompt: prompt}
			if enhance {
				req.Enhance = &enhance
			}
			data, err := p.UpscaleImage(cmd.Context(), req)
			if err != nil {
				return err
			}

			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			path := filepath.Join(dir, fmt.Sprintf("%s-upscaled-%s.png", base, uuid.NewString()[:8]))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			return a.printSaved([]savedFile{{Path: path, Bytes: len(data)}})
		},
	}
	cmd.Flags().Float64Var(&scale, "scale", 2, "scale factor (1-4)")
	cmd.Flags().BoolVar(&enhance, "enhance", false, "apply AI enhancement")
	cmd.Flags().StringVar(&prompt, "enhance-prompt", "", "style hint for enhancement")
	return cmd
}
