package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chunkscribe/internal/config"
	"github.com/alnah/go-chunkscribe/internal/export"
	"github.com/alnah/go-chunkscribe/internal/format"
)

// SplitCmd creates the split command.
// The env parameter provides injectable dependencies for testing.
func SplitCmd(env *Env) *cobra.Command {
	var (
		output    string
		chunkSize string
	)

	cmd := &cobra.Command{
		Use:   "split <media-file>",
		Short: "Split a media file into audio chunks",
		Long: `Convert a media file to audio and write each chunk under its suggested
file name, e.g. part_001_00m00s-04m12s.mp3.

No API key is needed.`,
		Example: `  chunkscribe split lecture.mp4
  chunkscribe split podcast.mp3 -o parts --chunk-size 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, env, args[0], output, chunkSize)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: <input>_chunks)")
	cmd.Flags().StringVar(&chunkSize, "chunk-size", "", "Chunk size in megabytes (default from config)")

	return cmd
}

func runSplit(cmd *cobra.Command, env *Env, inputPath, output, chunkSize string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(env)
	if err != nil {
		return err
	}
	if err := applyOverrides(&cfg, chunkSize, "", "", "", ""); err != nil {
		return err
	}
	f, err := readMedia(inputPath)
	if err != nil {
		return err
	}

	dir := config.ResolveOutputPath(output, config.ExpandPath(cfg.OutputDir), deriveChunkDir(inputPath))
	if err := os.MkdirAll(dir, 0750); err != nil { // #nosec G301 -- user output dir
		return fmt.Errorf("cannot create output directory: %w", err)
	}

	st, err := buildStages(ctx, env, cfg, needs{})
	if err != nil {
		return err
	}
	s := st.newSession()
	defer s.Close()

	events, cancel := s.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		newProgressPrinter(env.Stderr).follow(events)
	}()
	err = s.SelectFile(ctx, f)
	cancel()
	<-printed
	if err != nil {
		return err
	}

	chunks := s.Snapshot().Chunks
	paths, err := export.WriteChunks(dir, chunks)
	for i, p := range paths {
		_, _ = fmt.Fprintf(env.Stdout, "%s\t%s\t%s\n", p, chunks[i].Label(), format.Size(int64(chunks[i].Size())))
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Done: %d chunks in %s\n", len(paths), dir)
	return nil
}
