package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/issue"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-validate a local roadmap file whenever it changes",
	Long: `Validate a roadmap file, then validate it again every time it is saved.
Useful while drafting a roadmap before publishing it to an issue.

Only local files can be watched. Press Ctrl+C to stop.

Examples:
  roadmap watch docs/roadmap.md`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", issue.DefaultDebounce, "wait this long for writes to settle before re-validating")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}
	if ref.Kind != issue.KindFile {
		return errors.NewValidationError("only local files can be watched").WithField("ref").WithValue(args[0])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	check := func() {
		result, err := a.svc.Validate(ctx, ref)
		if err != nil {
			a.out.Printf("%s\n", a.out.style(failStyle, "✗ "+err.Error()))
			return
		}
		// Failed checks are already printed; keep watching.
		_ = reportValidation(a.out, ref.String(), result)
	}

	check()
	a.logger.Info("watching roadmap file", "path", ref.Path)
	err = issue.WatchFile(ctx, ref.Path, watchDebounce, func() {
		a.out.Printf("\n%s\n", a.out.style(mutedStyle, time.Now().Format(time.TimeOnly)+" "+ref.Path+" changed"))
		check()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
