package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"endurance-coach/internal/auth"
	"endurance-coach/internal/config"
	"endurance-coach/internal/logger"
	"endurance-coach/internal/service"
	"endurance-coach/internal/store"
	"endurance-coach/internal/strava"
	"endurance-coach/internal/tui"
)

const usage = `Usage: coach [command] [flags]

Commands:
  tui                       interactive dashboard (default)
  serve                     run the JSON API and /metrics
  sync                      fetch new activities from Strava
  login                     run the Strava OAuth flow
  logout                    forget the stored Strava tokens
  activities [-n 20]        list stored activities with their IDs
  import-fit <path>...      import .fit files or directories of them
  import-plan <plan.yaml>   replace the active training plan
  complete <key>            mark a session done, e.g. complete w3s2 -activity 123
  miss <key>                mark a session missed, e.g. miss w3s2 -reason sick
  readiness                 print the race readiness report
  export-load -out <file>   write the daily CTL/ATL/TSB series as parquet
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// app bundles what every command needs
type app struct {
	cfg *config.Config
	db  *store.Store
	log *logger.Logger
}

func run(args []string) error {
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return nil
	}

	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Println("Add your FTP and race date. Strava API credentials are needed to sync;")
		fmt.Println("get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ValidateLocal(); err != nil {
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Config validation failed: %v\n\n", err)
		fmt.Printf("Please edit the config file at:\n  %s/config.json\n", configDir)
		return nil
	}

	logOpts := logger.Options{Mode: cfg.Logging.Mode, Level: cfg.Logging.Level}
	if cmd == "tui" {
		// zap writes to stderr by default, which would tear the alternate screen
		configDir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		logOpts.OutputPath = filepath.Join(configDir, "coach.log")
	}
	lg, err := logger.New(logOpts)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer lg.Sync()

	db, err := store.Open()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	a := &app{cfg: cfg, db: db, log: lg}
	ctx := context.Background()

	switch cmd {
	case "tui":
		return a.runTUI(ctx)
	case "serve":
		return a.serve(ctx)
	case "sync":
		return a.sync(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "activities":
		return a.listActivities(args)
	case "import-fit":
		return a.importFIT(args)
	case "import-plan":
		return a.importPlan(args)
	case "complete":
		return a.markComplete(args)
	case "miss":
		return a.markMissed(args)
	case "readiness":
		return a.readiness(args)
	case "export-load":
		return a.exportLoad(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) coach() *service.CoachService {
	return service.NewCoachService(a.db, a.db, a.db, a.cfg, a.log)
}

// syncService authenticates with Strava, logging in first if needed
func (a *app) syncService(ctx context.Context) (*service.SyncService, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	oauthCfg := auth.NewOAuthConfig(auth.ConfigFromStrava(a.cfg.Strava))
	tokenSource, err := auth.EnsureTokenSource(ctx, oauthCfg, a.db, os.Stdout, a.log)
	if err != nil {
		return nil, err
	}
	if stored, err := a.db.GetAuth(); err == nil && stored.Scope != "" && !stored.HasScope(store.ScopePrivateActivities) {
		a.log.Warn("strava grant excludes private activities", "scope", stored.Scope)
	}

	rl := a.cfg.Strava.RateLimit
	client := strava.NewClient(tokenSource, strava.Limits{
		FifteenMinute: rl.FifteenMinute,
		Daily:         rl.Daily,
		MinInterval:   rl.MinInterval(),
	})
	return service.NewSyncService(client, a.db, a.log), nil
}

func (a *app) runTUI(ctx context.Context) error {
	// The TUI works offline on imported FIT files; sync needs credentials
	var syncSvc *service.SyncService
	if a.cfg.Validate() == nil {
		ss, err := a.syncService(ctx)
		if err != nil {
			return err
		}
		syncSvc = ss
	}

	model := tui.NewApp(a.coach(), syncSvc, a.cfg.Display, a.log)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

func (a *app) login(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	oauthCfg := auth.NewOAuthConfig(auth.ConfigFromStrava(a.cfg.Strava))
	result, err := auth.Login(ctx, oauthCfg, a.db, os.Stdout, a.log)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Successfully authenticated as athlete %d!\n", result.AthleteID)
	return nil
}
