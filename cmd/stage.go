package cmd

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/term-coder/internal/patch"
	"github.com/papapumpkin/term-coder/internal/staging"
	"github.com/papapumpkin/term-coder/internal/telemetry"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage a pending edit from proposed contents or a diff",
	Long: "Stage builds a proposal and saves it as the pending edit. Proposed\n" +
		"contents come either from --content-dir, a mirror tree of full\n" +
		"replacement files, or from --diff, an existing unified diff (which\n" +
		"can be previewed but not applied, since it carries no contents).",
	RunE: runStage,
}

func init() {
	stageCmd.Flags().String("content-dir", "", "directory mirroring the project tree with replacement contents")
	stageCmd.Flags().String("diff", "", "file containing a unified diff from an external producer")
	stageCmd.Flags().StringP("instruction", "i", "", "what this change is meant to do")
	stageCmd.Flags().String("rationale", "", "why the change is shaped this way")

	rootCmd.AddCommand(stageCmd)
}

func runStage(cmd *cobra.Command, args []string) error {
	e, err := buildEngine(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	instruction, _ := cmd.Flags().GetString("instruction")
	rationale, _ := cmd.Flags().GetString("rationale")
	contentDir, _ := cmd.Flags().GetString("content-dir")
	diffFile, _ := cmd.Flags().GetString("diff")

	var proposal *patch.Proposal
	switch {
	case contentDir != "" && diffFile != "":
		return fmt.Errorf("--content-dir and --diff are mutually exclusive")

	case contentDir != "":
		changes, err := loadContentDir(contentDir)
		if err != nil {
			return err
		}
		builder := &patch.Builder{Root: e.root, Context: e.cfg.ContextLines}
		diffText, err := builder.Build(changes)
		if err != nil {
			return err
		}
		proposal = patch.NewProposal(instruction, diffText, rationale, changes, e.thresholds)

	case diffFile != "":
		data, err := os.ReadFile(diffFile)
		if err != nil {
			return fmt.Errorf("reading diff: %w", err)
		}
		diffText := string(data)
		if err := patch.CheckDiff(diffText); err != nil {
			return err
		}
		// Diff-only proposal: previewable, not applicable.
		proposal = patch.NewProposal(instruction, diffText, rationale, nil, e.thresholds)

	default:
		return fmt.Errorf("one of --content-dir or --diff is required")
	}

	if proposal.Empty() {
		e.printer.Info("no changes to stage")
		return nil
	}

	if err := e.store.Save(staging.PendingEdit{Instruction: instruction, Proposal: proposal}); err != nil {
		return err
	}
	_ = e.events.Emit(telemetry.Event{Kind: telemetry.KindPatchStaged, Proposal: proposal.ID,
		Data: proposal.Impact})

	e.printer.ProposalSummary(proposal)
	e.printer.Info("staged: review with 'term-coder diff', apply with 'term-coder apply'")
	return nil
}

// loadContentDir walks a mirror tree and returns its files as a changes
// map keyed by root-relative path. Binary files are rejected: the engine
// replaces text content only.
func loadContentDir(dir string) (map[string]string, error) {
	changes := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) || bytes.ContainsRune(data, 0) {
			return fmt.Errorf("%s: binary content cannot be staged", rel)
		}
		changes[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading content dir: %w", err)
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("content dir %s contains no files", dir)
	}
	return changes, nil
}
