package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/watch"
)

// WatchCmd creates the watch command.
// The env parameter provides injectable dependencies for testing.
func WatchCmd(env *Env) *cobra.Command {
	var (
		output        string
		docFormat     string
		maxConcurrent int
		noSummary     bool
	)

	cmd := &cobra.Command{
		Use:   "watch <inbox-dir>",
		Short: "Process every media file dropped into a directory",
		Long: `Watch a directory and run the whole pipeline for each new audio or video
file, each in its own session. Documents are written next to the inbox or
into --output. Files already present when the watch starts are ignored.`,
		Example: `  chunkscribe watch ~/Inbox
  chunkscribe watch ~/Inbox -o ~/Transcripts --format docx --max-concurrent 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, env, args[0], output, docFormat, maxConcurrent, !noSummary)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: output-dir, else the inbox)")
	cmd.Flags().StringVar(&docFormat, "format", string(export.FormatMarkdown), "Document format: md, docx")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Files processed at once (default from config)")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "Skip summaries")

	return cmd
}

// runWatch blocks until the command context ends. An interrupt is a normal
// stop once in-flight files finish.
func runWatch(cmd *cobra.Command, env *Env, inbox, output, docFormat string, maxConcurrent int, withSummary bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	f := export.Format(docFormat)
	if f != export.FormatMarkdown && f != export.FormatDOCX {
		return fmt.Errorf("--format %q (use md or docx): %w", docFormat, ErrUnsupportedFormat)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.MaxConcurrent
	}

	inbox = config.ExpandPath(inbox)
	if !isDir(inbox) {
		return fmt.Errorf("%w: %s is not a directory", ErrFileNotFound, inbox)
	}
	outDir := output
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if outDir == "" {
		outDir = inbox
	}
	outDir = config.ExpandPath(outDir)
	if err := config.ValidOutputDir(outDir); err != nil {
		return fmt.Errorf("invalid output directory: %w", err)
	}

	st, err := buildStages(ctx, env, cfg, needs{transcriber: true, summarizer: withSummary})
	if err != nil {
		return err
	}

	handle := func(ctx context.Context, path string) error {
		out := filepath.Join(outDir, deriveOutputPath(path, f))
		return processFile(ctx, env, st, path, processOptions{output: out, summarize: withSummary})
	}

	w, err := watch.New(inbox, handle, watch.WithLogger(st.log), watch.WithMaxConcurrent(maxConcurrent))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	_, _ = fmt.Fprintf(env.Stderr, "Watching %s, writing to %s (Ctrl+C to stop)\n", inbox, outDir)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// isDir reports whether p is an existing directory.
func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
