// Command textsort sorts the lines of a file, or of standard input, using
// bounded memory. Lines that do not fit in the memory budget are spilled to
// sorted temporary runs which are merged into the output.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanrat/spillsort"
	"github.com/lanrat/spillsort/compress"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options holds the parsed command line flags
type options struct {
	maxMemory   int64
	mergeFactor int
	tempDir     string
	compression string
	progress    time.Duration
	unique      bool
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "textsort [input-file]",
		Short: "Sort text lines with bounded memory",
		Long: `textsort sorts newline separated text by byte value. Input is read from
the named file or standard input and the sorted lines are written to standard
output. Inputs larger than --max-memory are sorted through temporary files.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.Int64VarP(&opts.maxMemory, "max-memory", "m", spillsort.DefaultMaxMemoryUsage, "approximate bytes of lines held in memory per batch")
	flags.IntVarP(&opts.mergeFactor, "merge-factor", "k", spillsort.DefaultMergeFactor, "maximum number of runs merged at once")
	flags.StringVarP(&opts.tempDir, "temp-dir", "T", "", "directory for temporary runs (default: a disk-backed temp directory)")
	flags.StringVar(&opts.compression, "compression", "none", "compression for temporary runs: none, zstd, s2 or lz4")
	flags.DurationVar(&opts.progress, "progress", 0, "log progress at this interval (0 disables)")
	flags.BoolVarP(&opts.unique, "unique", "u", false, "output only the first of equal lines")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log spills and merge rounds")
	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	kind, err := compress.ParseKind(opts.compression)
	if err != nil {
		return err
	}
	config := spillsort.DefaultConfig().
		WithMaxMemoryUsage(opts.maxMemory).
		WithMergeFactor(opts.mergeFactor).
		WithCompression(kind).
		WithLogger(logger)
	if opts.tempDir != "" {
		config = config.WithTempDir(opts.tempDir)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	sorter := spillsort.NewLineSorter(config)
	src, err := spillsort.Lines().NewSource(in)
	if err != nil {
		return err
	}
	sink, err := spillsort.Lines().NewSink(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if opts.unique {
		sink = spillsort.UniqSink(sink, bytes.Compare)
	}

	ctx := cmd.Context()
	if opts.progress > 0 {
		done := make(chan struct{})
		defer close(done)
		go reportProgress(logger, &sorter.State, opts.progress, done)
	}

	start := time.Now()
	completed, err := sorter.Sort(ctx, src, sink)
	if err != nil {
		logger.Error("sort failed", "error", err)
		return err
	}
	if !completed {
		err := errors.New("sort did not complete")
		logger.Error("sort interrupted")
		return err
	}
	logger.Debug("sort complete",
		"runs", sorter.PreSortRunCount(),
		"mergeRounds", sorter.MergeRoundCount(),
		"elapsed", time.Since(start))
	return nil
}

// reportProgress logs the sort phase every interval until done is closed.
func reportProgress(logger *slog.Logger, state *spillsort.State, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logger.Info("progress", "phase", state.Phase(), "runs", state.PreSortRunCount(),
				"mergeRound", fmt.Sprintf("%d/%d", state.MergeRound(), state.MergeRoundCount()))
		}
	}
}
