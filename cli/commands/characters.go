package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) newCharactersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "characters",
		Short: "List public characters",
		Long:  `List the public Venice characters. Pass a slug to 'venice chat --character'.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			chars, err := p.ListCharacters(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(chars)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tNAME\tDESCRIPTION")
			for _, c := range chars {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Slug, c.Name, truncate(c.Description, 60))
			}
			return tw.Flush()
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
