package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/venice/cli/keystore"
	"github.com/petal-labs/venice/providers/venice"
)

func (a *App) newKeysCommand() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long: `Manage API keys. Local keys are stored encrypted in ~/.venice/keys.enc;
the 'remote' subcommands manage keys on your Venice account.`,
	}

	keysCmd.AddCommand(&cobra.Command{
		Use:   "set [name]",
		Short: "Store an API key locally",
		Long: `Store an API key under name (default: the api_key_ref from config).
The key is prompted without echo, or read from standard input when piped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runKeysSet,
	})
	keysCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List locally stored API keys",
		Long:  `List locally stored API keys. Only names are shown, never key values.`,
		Args:  cobra.NoArgs,
		RunE:  a.runKeysList,
	})
	keysCmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a locally stored API key",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysDelete,
	})
	keysCmd.AddCommand(a.newRemoteKeysCommand())

	return keysCmd
}

// readSecret reads a line without echo from a terminal, or plainly from
// piped input.
func (a *App) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.stderr, prompt)

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	name := a.cfg.APIKeyRef
	if len(args) == 1 {
		name = args[0]
	}

	apiKey, err := a.readSecret(fmt.Sprintf("Enter API key for %s: ", name))
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to read key: %w", err))
	}
	if apiKey == "" {
		return exitWithCode(ExitValidation, errors.New("API key cannot be empty"))
	}

	ks, err := a.newKeystore()
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}
	if err := ks.Set(name, apiKey); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to store key: %w", err))
	}

	fmt.Fprintf(a.stdout, "API key %s stored successfully.\n", name)
	return nil
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}
	names, err := ks.List()
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to list keys: %w", err))
	}

	if a.jsonOutput {
		return a.writeJSON(names)
	}
	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API keys stored.")
		return nil
	}
	fmt.Fprintln(a.stdout, "Stored keys:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}
	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := a.newKeystore()
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}
	if err := ks.Delete(name); err != nil {
		var notFound *keystore.ErrKeyNotFound
		if errors.As(err, &notFound) {
			return exitWithCode(ExitValidation, fmt.Errorf("no key stored for %s", name))
		}
		return exitWithCode(ExitValidation, fmt.Errorf("failed to delete key: %w", err))
	}

	fmt.Fprintf(a.stdout, "API key %s deleted.\n", name)
	return nil
}

func (a *App) newRemoteKeysCommand() *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Manage API keys on your Venice account (admin key required)",
	}

	remote.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List account API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			keys, err := p.ListAPIKeys(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(keys)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tKEY\tDESCRIPTION\tLAST USED")
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%s\t...%s\t%s\t%s\n", k.ID, k.Type, k.Last6Chars, k.Description, k.LastUsedAt)
			}
			return tw.Flush()
		},
	})

	var (
		keyType     string
		description string
		expires     string
		store       string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account API key",
		Long: `Create an account API key. The secret is shown once; pass --store to
save it in the local keystore instead of printing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := venice.APIKeyType(strings.ToUpper(keyType))
			if typ != venice.APIKeyInference && typ != venice.APIKeyAdmin {
				return exitWithCode(ExitValidation, fmt.Errorf("invalid --type %q: want inference or admin", keyType))
			}
			p, err := a.provider()
			if err != nil {
				return err
			}
			created, err := p.CreateAPIKey(cmd.Context(), &venice.CreateAPIKeyRequest{
				Type:        typ,
				Description: description,
				ExpiresAt:   expires,
			})
			if err != nil {
				return err
			}

			if store != "" {
				ks, err := a.newKeystore()
				if err != nil {
					return exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
				}
				if err := ks.Set(store, created.Key); err != nil {
					return exitWithCode(ExitValidation, fmt.Errorf("failed to store key: %w", err))
				}
				created.Key = ""
			}

			if a.jsonOutput {
				return a.writeJSON(created)
			}
			fmt.Fprintf(a.stdout, "Created %s key %s\n", created.Type, created.ID)
			if store != "" {
				fmt.Fprintf(a.stdout, "Stored locally as %s.\n", store)
			} else {
				fmt.Fprintf(a.stdout, "Key: %s\n", created.Key)
			}
			return nil
		},
	}
	create.Flags().StringVar(&keyType, "type", "inference", "inference or admin")
	create.Flags().StringVar(&description, "description", "", "key description")
	create.Flags().StringVar(&expires, "expires", "", "expiry date (ISO 8601)")
	create.Flags().StringVar(&store, "store", "", "save the new key locally under this name")
	remote.AddCommand(create)

	remote.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one account API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			key, err := p.GetAPIKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(key)
			}
			fmt.Fprintf(a.stdout, "ID:          %s\n", key.ID)
			fmt.Fprintf(a.stdout, "Type:        %s\n", key.Type)
			fmt.Fprintf(a.stdout, "Key:         ...%s\n", key.Last6Chars)
			fmt.Fprintf(a.stdout, "Description: %s\n", key.Description)
			if key.ExpiresAt != "" {
				fmt.Fprintf(a.stdout, "Expires:     %s\n", key.ExpiresAt)
			}
			if key.LastUsedAt != "" {
				fmt.Fprintf(a.stdout, "Last used:   %s\n", key.LastUsedAt)
			}
			return nil
		},
	})

	remote.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			if err := p.DeleteAPIKey(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "API key %s deleted.\n", args[0])
			return nil
		},
	})

	remote.AddCommand(&cobra.Command{
		Use:   "limits",
		Short: "Show rate limits and balances of the current key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			info, err := p.RateLimits(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.writeJSON(info)
			}
			fmt.Fprintf(a.stdout, "Tier: %s  Balance: %.2f USD, %.2f VCU\n", info.APITier.ID, info.Balances.USD, info.Balances.VCU)
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tLIMITS")
			for _, m := range info.RateLimits {
				parts := make([]string, len(m.Limits))
				for i, l := range m.Limits {
					parts[i] = fmt.Sprintf("%s=%g", l.Type, l.Amount)
				}
				fmt.Fprintf(tw, "%s\t%s\n", m.ModelID, strings.Join(parts, " "))
			}
			return tw.Flush()
		},
	})

	return remote
}
