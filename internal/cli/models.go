package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/summarize"
)

// ModelsCmd creates the models command.
// Lists Gemini models visible to the configured API key.
func ModelsCmd(env *Env) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available summarization models",
		Long: `List the Gemini models available to GEMINI_API_KEY (or GOOGLE_API_KEY).

By default only flash and pro chat models are shown, newest first.`,
		Example: `  chunkscribe models
  chunkscribe models --all --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListModels(cmd.Context(), env, all, asJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show every model, not only chat models")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print {count, models} as JSON")

	return cmd
}

func runListModels(ctx context.Context, env *Env, all, asJSON bool) error {
	key, err := apiKey(env.Getenv, ProviderGemini)
	if err != nil {
		return err
	}
	lister, err := env.SummarizerFactory.NewModelLister(ctx, key)
	if err != nil {
		return err
	}
	models, err := lister.List(ctx)
	if err != nil {
		return err
	}
	if !all {
		models = summarize.FilterChatModels(models)
	}

	if asJSON {
		if models == nil {
			models = []summarize.ModelInfo{}
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Count  int                   `json:"count"`
			Models []summarize.ModelInfo `json:"models"`
		}{len(models), models})
	}

	if len(models) == 0 {
		_, _ = fmt.Fprintln(env.Stderr, "No models found.")
		return nil
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tINPUT\tOUTPUT")
	for _, m := range models {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.ShortName(), m.DisplayName, m.InputTokenLimit, m.OutputTokenLimit)
	}
	return tw.Flush()
}
