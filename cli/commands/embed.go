package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/venice"
)

func (a *App) newEmbedCommand() *cobra.Command {
	var (
		batch       int
		concurrency int
		dimensions  int
	)
	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Create embeddings",
		Long: `Create embeddings for each argument, or for each line of standard input
when no arguments are given. Large inputs are split into batches that run
concurrently.

Examples:
  venice embed "first text" "second text" --json
  cat corpus.txt | venice embed --batch 64 --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				sc := bufio.NewScanner(cmd.InOrStdin())
				sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for sc.Scan() {
					if line := strings.TrimSpace(sc.Text()); line != "" {
						inputs = append(inputs, line)
					}
				}
				if err := sc.Err(); err != nil {
					return exitWithCode(ExitValidation, fmt.Errorf("read input: %w", err))
				}
			}
			if len(inputs) == 0 {
				return exitWithCode(ExitValidation, core.ErrNoInput)
			}

			p, err := a.provider()
			if err != nil {
				return err
			}
			req := &core.EmbeddingRequest{
				Model: a.modelID(venice.ModelBGEM3),
				Input: inputs,
			}
			if dimensions > 0 {
				req.Dimensions = &dimensions
			}

			var resp *core.EmbeddingResponse
			if batch > 0 && batch < len(inputs) {
				resp, err = p.EmbedBatch(cmd.Context(), req, batch, concurrency)
			} else {
				resp, err = a.client(p).CreateEmbeddings(cmd.Context(), req)
			}
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return a.writeJSON(resp)
			}
			for _, v := range resp.Vectors {
				fmt.Fprintf(a.stdout, "%d\t%d dims\t%s\n", v.Index, len(v.Vector), preview(v.Vector))
			}
			fmt.Fprintf(a.stdout, "model %s, %d tokens\n", resp.Model, resp.Usage.TotalTokens)
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "max inputs per request (0 = one request)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "concurrent batch requests")
	cmd.Flags().IntVar(&dimensions, "dimensions", 0, "output dimensions (0 = model default)")
	return cmd
}

func preview(v []float32) string {
	const n = 4
	parts := make([]string, 0, n+1)
	for i, x := range v {
		if i == n {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%.4f", x))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
