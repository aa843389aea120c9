package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/cli/config"
)

func (a *App) newInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Write the config file or scaffold a new project",
		Long: `Without arguments, write a default config file to ~/.venice/config.yaml
(or the --config path).

With a project name, create a project directory with:
  - main.go: a starter program calling a tool through Venice chat
  - venice.yaml: project configuration
  - tools/: directory for custom tools

Examples:
  venice init
  venice init myagent --model qwen3-235b`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if a.model != "" {
				cfg.DefaultModel = a.model
			}
			if len(args) == 0 {
				return a.runInitConfig(&cfg, force)
			}
			return a.runInitProject(args[0], &cfg)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func (a *App) runInitConfig(cfg *config.Config, force bool) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := config.Save(path, cfg, force); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("write config: %w (use --force to overwrite)", err))
	}
	fmt.Fprintf(a.stdout, "Wrote %s\n", path)
	fmt.Fprintf(a.stdout, "Next: venice keys set %s\n", cfg.APIKeyRef)
	return nil
}

func (a *App) runInitProject(projectPath string, cfg *config.Config) error {
	projectName := filepath.Base(projectPath)
	if err := validateProjectName(projectName); err != nil {
		return exitWithCode(ExitValidation, err)
	}
	if _, err := os.Stat(projectPath); err == nil {
		return exitWithCode(ExitValidation, fmt.Errorf("directory %q already exists", projectPath))
	}

	toolsDir := filepath.Join(projectPath, "tools")
	if err := os.MkdirAll(toolsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", toolsDir, err)
	}
	if err := os.WriteFile(filepath.Join(toolsDir, ".gitkeep"), nil, 0o644); err != nil {
		return fmt.Errorf("failed to create .gitkeep: %w", err)
	}

	data := templateData{Name: projectName, Model: cfg.DefaultModel}
	if err := generateFile(filepath.Join(projectPath, "main.go"), mainGoTemplate, data); err != nil {
		return fmt.Errorf("failed to create main.go: %w", err)
	}

	projectCfg := &config.Config{DefaultModel: cfg.DefaultModel, LogLevel: cfg.LogLevel, APIKeyRef: cfg.APIKeyRef}
	if err := config.Save(filepath.Join(projectPath, "venice.yaml"), projectCfg, false); err != nil {
		return fmt.Errorf("failed to create venice.yaml: %w", err)
	}

	fmt.Fprintf(a.stdout, "Created Venice project: %s\n\n", projectName)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintf(a.stdout, "  cd %s\n", projectPath)
	fmt.Fprintln(a.stdout, "  export VENICE_API_KEY=<your-key>")
	fmt.Fprintln(a.stdout, "  go run main.go")
	return nil
}

var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}
	if slices.Contains([]string{"venice", "main", "tools"}, name) {
		return fmt.Errorf("invalid project name %q: reserved name", name)
	}
	return nil
}

type templateData struct {
	Name  string
	Model string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

var mainGoTemplate = `// Command {{.Name}} asks a Venice model a question it answers with a tool.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/petal-labs/venice/core"
	"github.com/petal-labs/venice/providers/venice"
	"github.com/petal-labs/venice/tools"
)

type clockArgs struct {
	Zone string ` + "`json:\"zone\"`" + `
}

func main() {
	p, err := venice.NewFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client := core.NewClient(p)

	reg := tools.NewRegistry(tools.WithTimeout(5 * time.Second))
	clock := tools.NewFunc("clock", "Current time in an IANA time zone",
		[]byte(` + "`" + `{"type":"object","properties":{"zone":{"type":"string"}},"required":["zone"]}` + "`" + `),
		func(ctx context.Context, args clockArgs) (any, error) {
			loc, err := time.LoadLocation(args.Zone)
			if err != nil {
				return "", err
			}
			return time.Now().In(loc).Format(time.Kitchen), nil
		})
	if err := reg.Register(clock); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	chat := client.Chat("{{.Model}}").
		User("What time is it in Tokyo?").
		Tools(reg.Definitions()...)

	resp, err := chat.GetResponse(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if resp.HasToolCalls() {
		results, err := reg.ExecuteAll(ctx, resp.ToolCalls, 4)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		if resp, err = chat.ToolResults(resp, results).GetResponse(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	}

	fmt.Println(resp.Output)
}
`
