package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/olongjohnson/SweatShop-sub000/internal/camp"
	"github.com/olongjohnson/SweatShop-sub000/internal/config"
	"github.com/olongjohnson/SweatShop-sub000/internal/dispatch"
	"github.com/olongjohnson/SweatShop-sub000/internal/engine"
	"github.com/olongjohnson/SweatShop-sub000/internal/exec"
	"github.com/olongjohnson/SweatShop-sub000/internal/git"
	"github.com/olongjohnson/SweatShop-sub000/internal/plan"
	"github.com/olongjohnson/SweatShop-sub000/internal/state"
	"github.com/olongjohnson/SweatShop-sub000/internal/workspace"
	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

var runCmd = &cobra.Command{
	Use:   "run <directives.yaml>",
	Short: "Dispatch a directive backlog to the conscript pool",
	Long: `Load a directive backlog from a YAML file and dispatch it.

The dispatcher runs until interrupted. Directives execute in dependency
order; finished work waits in qa_ready for approval.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

// directivesFile is the on-disk shape of a directive backlog.
type directivesFile struct {
	Directives []directiveEntry `yaml:"directives"`
}

type directiveEntry struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	DependsOn   []string `yaml:"depends_on"`
}

func loadDirectivesFile(path string) ([]models.Directive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directives: %w", err)
	}
	var file directivesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse directives: %w", err)
	}

	now := time.Now()
	directives := make([]models.Directive, 0, len(file.Directives))
	for _, e := range file.Directives {
		if e.ID == "" || e.Title == "" {
			return nil, fmt.Errorf("directive entry missing id or title")
		}
		directives = append(directives, models.Directive{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Status:      models.DirectiveBacklog,
			DependsOn:   e.DependsOn,
			CreatedAt:   now,
		})
	}
	return directives, nil
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFromPath(flagConfig)
	}
	return config.Load()
}

// colorNotifier prints human-attention events to stderr.
type colorNotifier struct{}

func (colorNotifier) Notify(title, message string) {
	color.New(color.FgYellow, color.Bold).Fprintf(os.Stderr, "[%s] ", title)
	fmt.Fprintln(os.Stderr, message)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	directives, err := loadDirectivesFile(args[0])
	if err != nil {
		return err
	}

	db, err := state.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	notifier := colorNotifier{}

	// Conscripts persisted mid-activity lost their sessions; surface them.
	recovered, err := state.NewRecoveryManager(db, log.Logger).Recover()
	if err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}
	for _, rc := range recovered {
		notifier.Notify("Recovered", fmt.Sprintf(
			"conscript %s was %s on directive %s at shutdown, now in error",
			rc.ConscriptID, rc.WasStatus, rc.DirectiveID))
	}

	if err := ensureConscripts(db, cfg.Dispatch.Conscripts); err != nil {
		return err
	}

	pool := camp.NewPool(db, log.Logger)
	if camps, err := db.ListCamps(); err == nil {
		for i := range camps {
			if err := pool.Register(&camps[i]); err != nil {
				return fmt.Errorf("restore camp %s: %w", camps[i].Alias, err)
			}
		}
	}

	if _, err := os.Stat(cfg.Camps.InventoryFile); err == nil {
		watcher, err := camp.NewWatcher(cfg.Camps.InventoryFile, pool, log.Logger)
		if err != nil {
			return fmt.Errorf("camp inventory: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("camp inventory sync: %w", err)
		}
		defer watcher.Close()
	} else {
		log.Warn().Str("path", cfg.Camps.InventoryFile).Msg("no camp inventory file, using persisted camps only")
	}

	gitRunner := git.NewExecRunner(exec.NewRunner(), cfg.Git.RepoPath)
	workspaces := workspace.NewManager(cfg.Git.WorktreeDir, cfg.Git.RepoPath, cfg.Git.BaseBranch, gitRunner, log.Logger)

	client, err := engine.NewClient(engine.ClientConfig{
		Model:         anthropic.Model(cfg.Engine.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Engine.UseAWSBedrock,
		AWSRegion:     cfg.Engine.AWSRegion,
		AWSProfile:    cfg.Engine.AWSProfile,
	})
	if err != nil {
		return err
	}

	// The engine reports to the orchestrator, which is built after it.
	var orch *dispatch.Orchestrator
	sink := engine.EventSinkFunc(func(ev engine.Event) {
		orch.HandleEngineEvent(ev)
	})
	eng := engine.NewClaudeEngine(client, sink, engine.NewPendingInputs(), log.Logger,
		engine.WithMaxTurns(cfg.Engine.MaxTurns))

	orch = dispatch.New(plan.New(), pool, workspaces, db, eng, notifier, dispatch.Config{
		PollInterval:  cfg.Dispatch.PollInterval,
		SharedCamps:   cfg.Camps.Shared,
		MaxPerCamp:    cfg.Camps.MaxPerCamp,
		MergeStrategy: workspace.MergeStrategy(cfg.Git.MergeStrategy),
	}, log.Logger)

	if err := orch.LoadDirectives(directives); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "dispatching %d directives, press Ctrl-C to stop\n", len(directives))

	<-ctx.Done()
	orch.Stop()
	return nil
}

// ensureConscripts provisions idle workers up to the configured count.
func ensureConscripts(db *state.DB, count int) error {
	existing, err := db.ListConscripts(nil)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.ID] = true
	}
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("conscript-%d", i)
		if have[id] {
			continue
		}
		if err := db.CreateConscript(&models.Conscript{
			ID:        id,
			Name:      id,
			Status:    models.ConscriptIdle,
			UpdatedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("provision %s: %w", id, err)
		}
	}
	return nil
}
