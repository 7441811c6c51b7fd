package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"endurance-coach/internal/analysis"
	"endurance-coach/internal/api"
	"endurance-coach/internal/config"
	"endurance-coach/internal/export"
	"endurance-coach/internal/fitimport"
	"endurance-coach/internal/planfile"
	"endurance-coach/internal/service"
)

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := api.NewHandler(a.coach(), a.log)
	srvCfg := api.DefaultServerConfig(a.cfg.HTTP.Addr)
	srv := api.NewServer(srvCfg, api.Instrument(api.NewMux(handler), a.log))

	return api.Serve(ctx, srv, srvCfg.ShutdownTimeout, a.log)
}

func (a *app) sync(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ss, err := a.syncService(ctx)
	if err != nil {
		return err
	}

	progress := make(chan service.SyncProgress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Phase == service.PhaseActivities && p.Total > 0 {
				fmt.Printf("\r  %d activities fetched", p.Total)
			}
		}
		fmt.Println()
	}()

	result, err := ss.SyncAll(ctx, progress)
	<-done
	if err != nil {
		return err
	}

	fmt.Printf("Stored %d of %d activities (%d rides)\n", result.ActivitiesStored, result.ActivitiesFetched, result.Rides)
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	short, daily := ss.RateLimitStatus()
	fmt.Printf("API limits remaining: %d (15min), %d (daily)\n", short, daily)
	return nil
}

func (a *app) logout() error {
	if err := a.db.DeleteAuth(); err != nil {
		return fmt.Errorf("removing stored tokens: %w", err)
	}
	fmt.Println("Strava tokens removed.")
	return nil
}

func (a *app) importFIT(args []string) error {
	if len(args) == 0 {
		return errors.New("import-fit needs at least one .fit file or directory")
	}

	result, err := fitimport.ImportFiles(args, a.db, a.log)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d activities from %d files\n", result.Activities, result.Files)
	for _, e := range result.Errors {
		fmt.Printf("warning: %v\n", e)
	}
	return nil
}

func (a *app) importPlan(args []string) error {
	if len(args) != 1 {
		return errors.New("import-plan needs exactly one plan file")
	}

	res, err := planfile.Load(args[0])
	if err != nil {
		return err
	}
	info, err := service.ImportPlan(a.db, a.db, res)
	if err != nil {
		return err
	}

	fmt.Printf("Imported plan %q: %d sessions", info.Name, info.Sessions)
	if len(res.Legacy) > 0 {
		fmt.Printf(", %d already done", len(res.Legacy))
	}
	fmt.Println()
	return nil
}

func (a *app) markComplete(args []string) error {
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	activity := fs.Int64("activity", 0, "ID of the activity that fulfilled the session")
	key, err := parseKeyAndFlags(fs, args)
	if err != nil {
		return err
	}

	var activityID *int64
	if *activity != 0 {
		activityID = activity
	}
	rec, err := a.coach().MarkComplete(key, activityID)
	if err != nil {
		return err
	}

	fmt.Printf("%s marked complete", key)
	if rec.ManualOverride {
		fmt.Print(" (overrides the automatic match)")
	}
	fmt.Println()
	return nil
}

func (a *app) markMissed(args []string) error {
	fs := flag.NewFlagSet("miss", flag.ContinueOnError)
	reason := fs.String("reason", "", "why the session was skipped")
	key, err := parseKeyAndFlags(fs, args)
	if err != nil {
		return err
	}

	if _, err := a.coach().MarkMissed(key, *reason); err != nil {
		return err
	}
	fmt.Printf("%s marked missed\n", key)
	return nil
}

// parseKeyAndFlags accepts the session key before or after the flags
func parseKeyAndFlags(fs *flag.FlagSet, args []string) (analysis.SessionKey, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		reordered := make([]string, 0, len(args))
		reordered = append(reordered, args[1:]...)
		args = append(reordered, args[0])
	}
	if err := fs.Parse(args); err != nil {
		return analysis.SessionKey{}, err
	}
	if fs.NArg() != 1 {
		return analysis.SessionKey{}, fmt.Errorf("%s needs one session key like w3s2", fs.Name())
	}
	return analysis.ParseSessionKey(fs.Arg(0))
}

func (a *app) readiness(args []string) error {
	fs := flag.NewFlagSet("readiness", flag.ContinueOnError)
	race := fs.String("race", "", "race date YYYY-MM-DD (default: race.date from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	coach := a.coach()
	var raceDate time.Time
	var err error
	if *race != "" {
		raceDate, err = time.Parse(config.DateLayout, *race)
	} else {
		raceDate, err = coach.RaceDate()
	}
	if err != nil {
		return err
	}

	report, err := coach.Readiness(raceDate)
	if err != nil {
		return err
	}

	fmt.Printf("Race %s, %d days away\n", raceDate.Format(config.DateLayout), report.DaysToRace)
	if report.Status == analysis.StatusInsufficientData {
		fmt.Println(report.Message)
	} else {
		fmt.Printf("Readiness %.0f/100: %s\n", report.Score, report.Label)
		for _, f := range report.Factors {
			fmt.Printf("  %-12s %5.1f x %.2f\n", f.Name, f.Score, f.Weight)
		}
		fmt.Printf("Race-day load: CTL %.0f  ATL %.0f  TSB %.0f (%s)\n",
			report.Load.CTL, report.Load.ATL, report.Load.TSB, report.Load.Form)
		for _, r := range report.Recommendations {
			fmt.Printf("  [%s] %s\n", r.Level, r.Message)
		}
	}
	fmt.Printf("Taper phase %s: %s\n", report.Taper.Phase, report.Taper.Message)
	for _, r := range report.Taper.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
	return nil
}

func (a *app) exportLoad(args []string) error {
	fs := flag.NewFlagSet("export-load", flag.ContinueOnError)
	out := fs.String("out", "", "output parquet file")
	fromFlag := fs.String("from", "", "first day YYYY-MM-DD (default: 90 days ago)")
	toFlag := fs.String("to", "", "last day YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*out) == "" {
		return errors.New("export-load needs -out <file.parquet>")
	}

	y, m, d := time.Now().Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -analysis.DefaultParams().HistoryDays)
	var err error
	if *fromFlag != "" {
		if from, err = time.Parse(config.DateLayout, *fromFlag); err != nil {
			return fmt.Errorf("parsing -from: %w", err)
		}
	}
	if *toFlag != "" {
		if to, err = time.Parse(config.DateLayout, *toFlag); err != nil {
			return fmt.Errorf("parsing -to: %w", err)
		}
	}

	series, err := a.coach().LoadSeries(from, to)
	if err != nil {
		return err
	}
	if err := export.WriteLoadSeries(*out, series); err != nil {
		return err
	}
	fmt.Printf("Wrote %d days to %s\n", len(series), *out)
	return nil
}

func (a *app) listActivities(args []string) error {
	fs := flag.NewFlagSet("activities", flag.ContinueOnError)
	limit := fs.Int("n", 20, "number of activities to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	total, err := a.db.CountActivities()
	if err != nil {
		return err
	}
	activities, err := a.db.ListActivities(*limit, 0)
	if err != nil {
		return err
	}

	fmt.Printf("%d activities stored\n", total)
	for _, act := range activities {
		fmt.Printf("  %-12d %-6s %s  %-12s %5dm  %s\n",
			act.ID,
			act.Source,
			act.StartDateLocal.Format("2006-01-02 15:04"),
			act.Type,
			act.MovingTime/60,
			act.Name,
		)
	}
	return nil
}
