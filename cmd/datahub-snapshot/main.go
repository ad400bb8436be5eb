package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/galpt/datahub/pkg/herrors"
	"github.com/galpt/datahub/pkg/hub"
	"github.com/galpt/datahub/pkg/hublog"
)

// Version is overridden at build-time.
var Version = "dev"

func main() {
	format := flag.String("format", "json", "snapshot formatter")
	flag.StringVar(format, "f", "json", "shorthand for -format")
	since := flag.Float64("since", 0, "only include nodes modified after this many seconds since the epoch")
	flag.Float64Var(since, "s", 0, "shorthand for -since")
	path := flag.String("path", "/", "resource-tree path to snapshot")
	flag.StringVar(path, "p", "/", "shorthand for -path")
	output := flag.String("output", "", "file to write the snapshot to (default stdout)")
	flag.StringVar(output, "o", "", "shorthand for -output")
	flushDeletions := flag.Bool("flush-deletions", false, "report and clear pending deletion records")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "datahub-snapshot %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	hublog.UseConsoleWriter(isatty.IsTerminal(os.Stderr.Fd()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *format, *path, *output, *since, *flushDeletions); err != nil {
		hublog.Logger.Error().Err(err).Msg("snapshot failed")
		os.Exit(exitCodeFor(err))
	}
}

// run takes a snapshot of a freshly constructed, empty Hub. A real deployment
// wires TakeSnapshot into a long-lived Hub populated by producer components
// over the Publisher/Administrator API; this CLI owns only the query side,
// so standing the hub up empty here demonstrates the CLI's flag/exit-code
// contract without inventing a producer process that has no place in this
// embedded, in-process broker.
func run(ctx context.Context, format, path, output string, since float64, flushDeletions bool) error {
	h := hub.New()

	var fmtID hub.Format
	switch format {
	case "json":
		fmtID = hub.FormatJSON
	default:
		return fmt.Errorf("format %q: %w", format, herrors.ErrNotImplemented)
	}

	var flags hub.SnapshotFlags
	if flushDeletions {
		flags |= hub.FlushDeletions
	}

	sink, err := h.TakeSnapshot(fmtID, flags, path, since)
	if err != nil {
		return fmt.Errorf("take snapshot: %w", err)
	}

	out := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("open output %q: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	if _, err := copyWithCancel(ctx, out, sink); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// copyWithCancel is io.Copy with a context check between chunks, so a
// SIGINT/SIGTERM during a large snapshot's write stops promptly instead of
// running to completion.
func copyWithCancel(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 4096)
	var total int64
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, herrors.ErrBusy):
		return 2
	case errors.Is(err, herrors.ErrNotFound):
		return 3
	case errors.Is(err, herrors.ErrOutOfRange):
		return 4
	case errors.Is(err, herrors.ErrUnsupported):
		return 5
	case errors.Is(err, herrors.ErrNotImplemented):
		return 6
	default:
		return 1
	}
}
