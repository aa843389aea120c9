// Package commands implements the venice command tree.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petal-labs/venice/cli/config"
	"github.com/petal-labs/venice/cli/keystore"
	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers"
	"github.com/petal-labs/venice/providers/venice"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ProviderFactory creates the Venice provider from the resolved API key
// and config.
type ProviderFactory func(apiKey string, cfg *config.Config, logger *zap.Logger) (*venice.Venice, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig     ConfigLoader
	createProvider ProviderFactory
	newKeystore    KeystoreFactory
	stdin          io.Reader
	stdout         io.Writer
	stderr         io.Writer

	cfgFile    string
	model      string
	baseURL    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithProviderFactory injects a provider factory dependency.
func WithProviderFactory(factory ProviderFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.createProvider = factory
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:     config.LoadConfig,
		createProvider: defaultProviderFactory,
		newKeystore:    keystore.NewKeystore,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "venice",
		Short: "Venice - command-line client for the Venice AI API",
		Long: `Venice is a command-line interface for the Venice AI API.

Use it to chat with models, generate images and speech, create embeddings,
inspect billing and manage API keys.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.venice/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (default from config)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newImageCommand())
	root.AddCommand(a.newSpeechCommand())
	root.AddCommand(a.newEmbedCommand())
	root.AddCommand(a.newBillingCommand())
	root.AddCommand(a.newCharactersCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Run executes the command tree with args. Failures are reported on the
// error stream and returned as errors carrying an exit code.
func (a *App) Run(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	if err := a.root.ExecuteContext(ctx); err != nil {
		return a.report(err)
	}
	return nil
}

// Execute runs the root command with the process arguments.
func (a *App) Execute(ctx context.Context) error {
	return a.Run(ctx, os.Args[1:])
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	a.cfg = cfg

	logger, err := config.NewLogger(cfg.LogLevel, a.verbose)
	if err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("build logger: %w", err))
	}
	a.logger = logger
	return nil
}

// modelID returns the --model flag, falling back to fallback and then to
// the configured default.
func (a *App) modelID(fallback core.ModelID) core.ModelID {
	switch {
	case a.model != "":
		return core.ModelID(a.model)
	case fallback != "":
		return fallback
	default:
		return core.ModelID(a.cfg.DefaultModel)
	}
}

// apiKey resolves the key from the keystore entry named by api_key_ref,
// then from $VENICE_API_KEY.
func (a *App) apiKey() (string, error) {
	ref := a.cfg.APIKeyRef
	ks, err := a.newKeystore()
	if err == nil {
		key, err := ks.Get(ref)
		if err == nil {
			return key, nil
		}
		var notFound *keystore.ErrKeyNotFound
		if !errors.As(err, &notFound) {
			a.logger.Warn("keystore read failed", zap.Error(err))
		}
	} else {
		a.logger.Warn("keystore unavailable", zap.Error(err))
	}

	if key := os.Getenv(venice.DefaultAPIKeyEnvVar); key != "" {
		return key, nil
	}
	return "", exitWithCode(ExitValidation,
		fmt.Errorf("no API key: run 'venice keys set %s' or set %s", ref, venice.DefaultAPIKeyEnvVar))
}

func (a *App) provider() (*venice.Venice, error) {
	key, err := a.apiKey()
	if err != nil {
		return nil, err
	}
	p, err := a.createProvider(key, a.cfg, a.logger)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}
	return p, nil
}

func (a *App) client(p core.Provider) *core.Client {
	opts := []core.ClientOption{core.WithLogger(a.logger)}
	if n := a.cfg.MaxRetries; n != nil {
		if *n <= 0 {
			opts = append(opts, core.WithRetryPolicy(core.NoRetry))
		} else {
			opts = append(opts, core.WithRetryPolicy(core.NewRetryPolicy(core.RetryConfig{MaxRetries: *n, Jitter: 0.2})))
		}
	}
	return core.NewClient(p, opts...)
}

func jsonEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

func (a *App) writeJSON(v any) error {
	return jsonEncoder(a.stdout).Encode(v)
}

func defaultProviderFactory(apiKey string, cfg *config.Config, logger *zap.Logger) (*venice.Venice, error) {
	p, err := providers.Create(venice.ProviderID, providers.Settings{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	v, ok := p.(*venice.Venice)
	if !ok {
		return nil, fmt.Errorf("provider %s is %T, want *venice.Venice", venice.ProviderID, p)
	}
	return v, nil
}
