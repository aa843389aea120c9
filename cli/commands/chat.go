package commands

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/venice/core"
)

type chatOptions struct {
	prompt      string
	system      string
	temperature float32
	maxTokens   int
	stream      bool
	async       bool
	character   string
	webSearch   string
}

func (a *App) newChatCommand() *cobra.Command {
	var o chatOptions
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a chat completion request",
		Long: `Send a chat completion request to a Venice model.

Examples:
  venice chat "Hello"
  venice chat --model qwen3-235b --prompt "Hello" --stream
  venice chat --character alan-watts "What is the self?"
  venice chat --web-search auto "What happened today?" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.prompt == "" {
				o.prompt = strings.Join(args, " ")
			}
			return a.runChat(cmd.Context(), o)
		},
	}

	cmd.Flags().StringVarP(&o.prompt, "prompt", "p", "", "user message (or pass it as arguments)")
	cmd.Flags().StringVar(&o.system, "system", "", "system message")
	cmd.Flags().Float32Var(&o.temperature, "temperature", 0, "temperature (0 = model default)")
	cmd.Flags().IntVar(&o.maxTokens, "max-tokens", 0, "max completion tokens (0 = model default)")
	cmd.Flags().BoolVar(&o.stream, "stream", false, "stream the response as it is generated")
	cmd.Flags().BoolVar(&o.async, "async", false, "stream with the cooperative reader (implies --stream)")
	cmd.Flags().StringVar(&o.character, "character", "", "Venice character slug")
	cmd.Flags().StringVar(&o.webSearch, "web-search", "", "web search mode: off, on or auto")

	return cmd
}

func (a *App) runChat(ctx context.Context, o chatOptions) error {
	if strings.TrimSpace(o.prompt) == "" {
		return exitWithCode(ExitValidation, fmt.Errorf("%w: pass --prompt or a positional argument", core.ErrPromptRequired))
	}
	var mode core.WebSearchMode
	switch o.webSearch {
	case "":
	case string(core.WebSearchOff), string(core.WebSearchOn), string(core.WebSearchAuto):
		mode = core.WebSearchMode(o.webSearch)
	default:
		return exitWithCode(ExitValidation, fmt.Errorf("invalid --web-search %q: want off, on or auto", o.webSearch))
	}

	p, err := a.provider()
	if err != nil {
		return err
	}

	builder := a.client(p).Chat(a.modelID(""))
	if o.system != "" {
		builder = builder.System(o.system)
	}
	builder = builder.User(o.prompt)
	if o.temperature > 0 {
		builder = builder.Temperature(o.temperature)
	}
	if o.maxTokens > 0 {
		builder = builder.MaxTokens(o.maxTokens)
	}
	if o.character != "" {
		builder = builder.Character(o.character)
	}
	if mode != "" {
		builder = builder.WebSearch(mode)
	}

	switch {
	case o.async:
		s, err := builder.StreamAsync(ctx)
		if err != nil {
			return err
		}
		return a.printStream(s.All(ctx))
	case o.stream:
		s, err := builder.Stream(ctx)
		if err != nil {
			return err
		}
		return a.printStream(s.All())
	}

	resp, err := builder.GetResponse(ctx)
	if err != nil {
		return err
	}
	if a.jsonOutput {
		return a.writeJSON(resp)
	}
	if resp.HasReasoning() && a.verbose {
		fmt.Fprintf(a.stderr, "[reasoning]\n%s\n\n", resp.Reasoning)
	}
	fmt.Fprintln(a.stdout, resp.Output)
	a.printCitations(resp.Citations)
	return nil
}

// printStream writes content deltas as they arrive. With --json the stream
// is drained and the assembled response is printed instead.
func (a *App) printStream(chunks iter.Seq2[core.ChatChunk, error]) error {
	var (
		text  strings.Builder
		usage *core.TokenUsage
		resp  core.ChatResponse
	)
	for chunk, err := range chunks {
		if err != nil {
			if !a.jsonOutput && text.Len() > 0 {
				fmt.Fprintln(a.stdout)
			}
			return err
		}
		if resp.ID == "" {
			resp.ID = chunk.ID
		}
		if chunk.Model != "" {
			resp.Model = chunk.Model
		}
		if fr := chunk.FinishReason(); fr != "" {
			resp.FinishReason = fr
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		delta := chunk.Text()
		text.WriteString(delta)
		if !a.jsonOutput {
			fmt.Fprint(a.stdout, delta)
		}
	}

	if a.jsonOutput {
		resp.Output = text.String()
		if usage != nil {
			resp.Usage = *usage
		}
		return a.writeJSON(resp)
	}

	fmt.Fprintln(a.stdout)
	if a.verbose && usage != nil {
		fmt.Fprintf(a.stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	return nil
}

func (a *App) printCitations(cs []core.WebCitation) {
	if len(cs) == 0 {
		return
	}
	fmt.Fprintln(a.stdout, "\nSources:")
	for i, c := range cs {
		fmt.Fprintf(a.stdout, "  [%d] %s - %s\n", i+1, c.Title, c.URL)
	}
}
