// cmd/tools/catalog-tool/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vc-readiness/internal/catalog"
	"vc-readiness/internal/scoring"
	"vc-readiness/internal/validator"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogPath string

	root := &cobra.Command{
		Use:           "catalog-tool",
		Short:         "Validate question catalogs and score answer files offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog YAML file (default: embedded catalog)")

	root.AddCommand(
		newValidateCmd(),
		newScoreCmd(&catalogPath),
		newCompletionCmd(&catalogPath),
	)
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog.yaml]",
		Short: "Check a catalog file; without an argument the embedded catalog is checked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fields := 0
			for _, s := range cat.Sections {
				fields += len(s.Fields)
			}
			fmt.Fprintf(out, "%s %d sections, %d fields, %d scoring tables\n",
				green("valid:"), len(cat.Sections), fields, len(cat.Matrix))
			for _, stage := range []catalog.Stage{catalog.StageIdea, catalog.StageLaunched} {
				fmt.Fprintf(out, "  %-9s %d sections\n", stage, len(cat.SectionsFor(stage)))
			}
			return nil
		},
	}
}

func newScoreCmd(catalogPath *string) *cobra.Command {
	var stageFlag string
	cmd := &cobra.Command{
		Use:   "score <answers.json>",
		Short: "Score an answers file and print the section breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, stage, answers, err := load(*catalogPath, stageFlag, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			res := validator.New(cat).Validate(answers, stage)
			if len(res.MissingFields) > 0 {
				fmt.Fprintf(out, "%s %d required answers missing\n", yellow("warning:"), len(res.MissingFields))
				for _, label := range res.MissingFields {
					fmt.Fprintf(out, "  - %s\n", label)
				}
			}
			for _, msg := range res.FormatErrors {
				fmt.Fprintf(out, "%s %s\n", yellow("warning:"), msg)
			}

			breakdown := scoring.NewAggregator(cat).Score(answers, stage)
			printBreakdown(out, breakdown)
			return nil
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "startup stage: idea or launched")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newCompletionCmd(catalogPath *string) *cobra.Command {
	var stageFlag string
	cmd := &cobra.Command{
		Use:   "completion <answers.json>",
		Short: "Print per-section completion for an answers file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, stage, answers, err := load(*catalogPath, stageFlag, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			c := scoring.ComputeCompletion(answers, stage, cat)
			for _, s := range cat.SectionsFor(stage) {
				fmt.Fprintf(out, "  %-24s %3d%%\n", s.ID, c.PerSection[s.ID])
			}
			fmt.Fprintf(out, "%s %d%%\n", bold("overall:"), c.Overall)
			return nil
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "startup stage: idea or launched")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func load(catalogPath, stageFlag, answersPath string) (*catalog.Catalog, catalog.Stage, catalog.Answers, error) {
	cat, err := catalog.LoadFile(catalogPath)
	if err != nil {
		return nil, "", nil, err
	}
	stage, err := catalog.ParseStage(stageFlag)
	if err != nil {
		return nil, "", nil, err
	}
	data, err := os.ReadFile(answersPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to read answers: %w", err)
	}
	var answers catalog.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, "", nil, fmt.Errorf("failed to parse answers: %w", err)
	}
	return cat, stage, answers, nil
}

func printBreakdown(out io.Writer, b scoring.Breakdown) {
	for _, s := range b.Sections {
		line := fmt.Sprintf("  %-28s %4.1f/10  (%d/%d answered, weight %.0f)",
			s.Title, s.Score, s.AnsweredFields, s.TotalFields, s.Weight)
		if s.AnsweredFields == 0 {
			line = yellow(line)
		}
		fmt.Fprintln(out, line)
	}

	total := fmt.Sprintf("%.1f/100", b.TotalScore)
	switch {
	case b.TotalScore >= 80:
		total = green(total)
	case b.TotalScore < 60:
		total = red(total)
	default:
		total = yellow(total)
	}
	fmt.Fprintf(out, "%s %s  %s %s\n", bold("total:"), total, b.Verdict.Emoji, b.Verdict.Text)
}
