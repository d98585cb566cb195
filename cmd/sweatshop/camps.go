package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/olongjohnson/SweatShop-sub000/internal/camp"
	"github.com/olongjohnson/SweatShop-sub000/internal/state"
	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

var campsCmd = &cobra.Command{
	Use:   "camps",
	Short: "Show the resource camp inventory and leases",
	RunE:  runCamps,
}

func runCamps(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Persisted lease state, when present, is more current than the
	// inventory file alone.
	var camps []models.Camp
	if _, err := os.Stat(cfg.DBPath); err == nil {
		db, err := state.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		camps, err = db.ListCamps()
		if err != nil {
			return err
		}
	}

	if len(camps) == 0 {
		declared, err := camp.LoadInventory(cfg.Camps.InventoryFile)
		if err != nil {
			return err
		}
		for _, c := range declared {
			camps = append(camps, *c)
		}
	}

	if len(camps) == 0 {
		fmt.Println("No camps declared. Add entries to", cfg.Camps.InventoryFile)
		return nil
	}

	color.New(color.Bold).Println("Camps")
	for _, c := range camps {
		fmt.Printf("  %-20s %-10s", c.Alias, colorCamp(c.Status))
		if len(c.Assignees) > 0 {
			fmt.Printf(" held by %s", strings.Join(c.Assignees, ", "))
		}
		if c.ExpiresAt != nil {
			fmt.Printf(" (expires %s)", c.ExpiresAt.Format(time.RFC3339))
		}
		fmt.Println()
	}
	return nil
}

func colorCamp(s models.CampStatus) string {
	switch s {
	case models.CampAvailable:
		return color.GreenString(string(s))
	case models.CampLeased:
		return color.CyanString(string(s))
	case models.CampExpired:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}
