package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/providers/venice"
)

func (a *App) newModelsCommand() *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long: `List the live Venice model catalog.

Examples:
  venice models
  venice models --type image
  venice models traits
  venice models compat --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runModels(cmd.Context(), venice.ModelType(typ))
		},
	}
	cmd.PersistentFlags().StringVar(&typ, "type", "", "model type: text, image, embedding, tts, upscale or all")

	cmd.AddCommand(&cobra.Command{
		Use:   "traits",
		Short: "Show which model each trait (default, fastest, ...) resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runModelMapping(cmd.Context(), (*venice.Venice).ModelTraits, venice.ModelType(typ))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "compat",
		Short: "Show which Venice model stands in for common foreign model names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runModelMapping(cmd.Context(), (*venice.Venice).ModelCompatibility, venice.ModelType(typ))
		},
	})
	return cmd
}

func (a *App) runModels(ctx context.Context, typ venice.ModelType) error {
	p, err := a.provider()
	if err != nil {
		return err
	}
	models, err := p.ListModels(ctx, typ)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return a.writeJSON(models)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCONTEXT\tCAPABILITIES")
	for _, m := range models {
		info := m.Info()
		caps := make([]string, len(info.Capabilities))
		for i, c := range info.Capabilities {
			caps[i] = string(c)
		}
		ctxTokens := "-"
		if info.ContextTokens > 0 {
			ctxTokens = fmt.Sprint(info.ContextTokens)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.Type, ctxTokens, strings.Join(caps, ","))
	}
	return tw.Flush()
}

type mappingFunc func(*venice.Venice, context.Context, venice.ModelType) (map[string]string, error)

func (a *App) runModelMapping(ctx context.Context, fetch mappingFunc, typ venice.ModelType) error {
	p, err := a.provider()
	if err != nil {
		return err
	}
	m, err := fetch(p, ctx, typ)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return a.writeJSON(m)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fmt.Fprintf(tw, "%s\t%s\n", k, m[k])
	}
	return tw.Flush()
}
