package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/olongjohnson/SweatShop-sub000/internal/state"
	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show directive and conscript state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Println("No state found. Run 'sweatshop run <directives.yaml>' to start.")
		return nil
	}

	db, err := state.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	directives, err := db.ListDirectives(nil)
	if err != nil {
		return err
	}
	conscripts, err := db.ListConscripts(nil)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)

	bold.Println("Directives")
	if len(directives) == 0 {
		fmt.Println("  (none)")
	}
	for _, d := range directives {
		fmt.Printf("  %-24s %-12s %s", d.ID, colorDirective(d.Status), d.Title)
		if len(d.DependsOn) > 0 {
			fmt.Printf("  (after %s)", strings.Join(d.DependsOn, ", "))
		}
		fmt.Println()
	}

	fmt.Println()
	bold.Println("Conscripts")
	if len(conscripts) == 0 {
		fmt.Println("  (none)")
	}
	for _, c := range conscripts {
		fmt.Printf("  %-16s %-14s", c.ID, colorConscript(c.Status))
		if c.DirectiveID != "" {
			fmt.Printf(" on %s", c.DirectiveID)
		}
		if c.CampAlias != "" {
			fmt.Printf(" @ %s", c.CampAlias)
		}
		fmt.Println()

		if run, err := db.GetOpenRun(c.ID); err == nil && run != nil {
			fmt.Printf("    run %s: %d tokens, $%.4f, %d questions, %d reworks\n",
				run.ID[:8], run.TokensUsed, run.Cost, run.Interventions, run.Reworks)
		}
	}

	return nil
}

func colorDirective(s models.DirectiveStatus) string {
	switch s {
	case models.DirectiveMerged:
		return color.GreenString(string(s))
	case models.DirectiveRejected:
		return color.RedString(string(s))
	case models.DirectiveQAReview:
		return color.YellowString(string(s))
	case models.DirectiveInProgress:
		return color.CyanString(string(s))
	default:
		return string(s)
	}
}

func colorConscript(s models.ConscriptStatus) string {
	switch s {
	case models.ConscriptIdle:
		return string(s)
	case models.ConscriptError:
		return color.RedString(string(s))
	case models.ConscriptQAReady, models.ConscriptNeedsInput:
		return color.YellowString(string(s))
	default:
		return color.CyanString(string(s))
	}
}
