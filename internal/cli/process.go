package cli

import (
	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
)

// ProcessCmd creates the process command.
// The env parameter provides injectable dependencies for testing.
func ProcessCmd(env *Env) *cobra.Command {
	var (
		output      string
		chunkSize   string
		model       string
		provider    string
		transcriber string
		language    string
		noSummary   bool
	)

	cmd := &cobra.Command{
		Use:   "process <media-file>",
		Short: "Transcribe and summarize an audio or video file",
		Long: `Convert a media file to audio, split it into chunks of at most --chunk-size
megabytes, transcribe every chunk and summarize the whole transcript.

Video is converted to MP3 first. Chunks that fail to transcribe are reported
and left empty; the document is still written.

The output is Markdown, or DOCX when the output path ends in .docx.
Existing files are never overwritten.`,
		Example: `  chunkscribe process lecture.mp4
  chunkscribe process interview.m4a -o interview.docx --chunk-size 5
  chunkscribe process talk.mp3 -l en --model gemini-2.5-pro
  chunkscribe process talk.mp3 --no-summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, env, args[0], output, chunkSize, model, provider, transcriber, language, !noSummary)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path, .md or .docx (default: <input>.md)")
	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Chunk size in megabytes (default from config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Summarization model")
	cmd.Flags().StringVar(&provider, "provider", "", "Summarization provider: gemini, openai")
	cmd.Flags().StringVar(&transcriber, "transcriber", "", "Transcription provider: groq, openai")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., th, en, pt-BR)")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "Skip the summary")

	return cmd
}

// runProcess executes the whole pipeline for one file.
// Validation order: config -> overrides -> input -> output -> API keys -> FFmpeg
func runProcess(cmd *cobra.Command, env *Env, inputPath, output, chunkSize, model, provider, transcriber, language string, withSummary bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cfg, chunkSize, model, provider, transcriber, language); err != nil {
		return err
	}
	if err := checkMedia(inputPath); err != nil {
		return err
	}

	defaultOutput := deriveOutputPath(inputPath, export.FormatMarkdown)
	output = config.ResolveOutputPath(output, config.ExpandPath(cfg.OutputDir), defaultOutput)
	warnUnknownExtension(env.Stderr, output)

	st, err := buildStages(ctx, env, cfg, needs{transcriber: true, summarizer: withSummary})
	if err != nil {
		return err
	}
	return processFile(ctx, env, st, inputPath, processOptions{output: output, summarize: withSummary})
}
