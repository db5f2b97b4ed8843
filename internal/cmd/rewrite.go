package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/errors"
	"github.com/Iron-Ham/roadmap/internal/mutate"
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <ref>",
	Short: "Regenerate the roadmap section of a document",
	Long: `Regenerate the step tables (and YAML block) of a document from its
parsed roadmap, optionally applying updates and replacing prose sections in
the same pass. Legacy four-column tables are upgraded and every status is
written explicitly.

Unlike update, a rewrite replaces the whole roadmap region. By default the
document is re-read just before writing and the rewrite is refused if it
changed in the meantime (rewrite.verify_unchanged).

Examples:
  # Normalize the tables and collapse finished phases
  roadmap rewrite acme/app#12 --collapse

  # Apply updates and replace the "Notes" section
  roadmap rewrite acme/app#12 --updates changes.jsonc --section 'Notes=@notes.md'

  # Keep a roadmap comment in step with the issue body
  roadmap rewrite acme/app#12 --mirror https://github.com/acme/app/issues/12#issuecomment-99`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

var (
	rewriteUpdates     string
	rewriteSections    []string
	rewriteCollapse    bool
	rewriteIfUnchanged bool
	rewriteExpectHash  string
	rewriteMirror      string
	rewriteDryRun      bool
)

func init() {
	rewriteCmd.Flags().StringVar(&rewriteUpdates, "updates", "", "update file to apply (JSON with comments, - for stdin)")
	rewriteCmd.Flags().StringArrayVar(&rewriteSections, "section", nil, "replace a prose section: 'Heading=text' or 'Heading=@file' (repeatable)")
	rewriteCmd.Flags().BoolVar(&rewriteCollapse, "collapse", false, "collapse finished phases into <details> (default from rewrite.collapse_completed)")
	rewriteCmd.Flags().BoolVar(&rewriteIfUnchanged, "if-unchanged", true, "refuse to write if the document changed since it was read (default from rewrite.verify_unchanged)")
	rewriteCmd.Flags().StringVar(&rewriteExpectHash, "expect-hash", "", "refuse to rewrite unless the document has this hash (see show --json)")
	rewriteCmd.Flags().StringVar(&rewriteMirror, "mirror", "", "second document whose roadmap is regenerated from this one")
	rewriteCmd.Flags().BoolVar(&rewriteDryRun, "dry-run", false, "print the rewritten document instead of writing it")
	rootCmd.AddCommand(rewriteCmd)
}

// parseSections reads --section values into heading/body pairs.
func parseSections(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	sections := make(map[string]string, len(values))
	for _, v := range values {
		heading, body, ok := strings.Cut(v, "=")
		heading = strings.TrimSpace(heading)
		if !ok || heading == "" {
			return nil, errors.NewValidationError("section must be 'Heading=text' or 'Heading=@file'").
				WithField("section").
				WithValue(v)
		}
		if path, isFile := strings.CutPrefix(body, "@"); isFile {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read section %q: %w", heading, err)
			}
			body = string(data)
		}
		sections[heading] = body
	}
	return sections, nil
}

func runRewrite(cmd *cobra.Command, args []string) error {
	sections, err := parseSections(rewriteSections)
	if err != nil {
		return err
	}
	var updates []mutate.Update
	if rewriteUpdates != "" {
		if updates, err = readUpdates(rewriteUpdates, cmd.InOrStdin()); err != nil {
			return err
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ref, err := a.ref(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	opts := objective.RewriteOptions{
		Updates:           updates,
		Sections:          sections,
		CollapseCompleted: boundDefault(cmd, "collapse", a.cfg.Rewrite.CollapseCompleted, flags.GetBool),
		IfUnchanged:       boundDefault(cmd, "if-unchanged", a.cfg.Rewrite.VerifyUnchanged, flags.GetBool),
		ExpectHash:        rewriteExpectHash,
		DryRun:            rewriteDryRun,
	}
	if rewriteMirror != "" {
		mirror, err := a.ref(rewriteMirror)
		if err != nil {
			return err
		}
		opts.Mirror = &mirror
	}
	if opts.Mirror != nil && *opts.Mirror == ref {
		return errors.NewValidationError("mirror must differ from the document being rewritten").WithField("mirror")
	}

	result, err := a.svc.Rewrite(cmd.Context(), ref, opts)
	if err != nil && result == nil {
		return err
	}

	switch {
	case a.out.json:
		if printErr := a.out.JSON(result); printErr != nil {
			return printErr
		}
	case rewriteDryRun:
		a.out.Printf("%s", result.Document)
	case !result.Changed:
		a.out.Printf("%s already up to date (%s)\n", ref, shortHash(result.Hash))
	default:
		a.out.Printf("rewrote %s (%s → %s)\n", ref, shortHash(result.PreviousHash), shortHash(result.Hash))
		if result.MirrorWritten {
			a.out.Printf("  synced %s\n", rewriteMirror)
		}
	}
	return err
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
