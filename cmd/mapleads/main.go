package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"mapleads-engine/internal/config"
	"mapleads-engine/internal/domain"
	"mapleads-engine/internal/events"
	"mapleads-engine/internal/export"
	"mapleads-engine/internal/pipeline"
	"mapleads-engine/internal/report"
	"mapleads-engine/internal/scheduler"
	"mapleads-engine/internal/scrape/browser"
	"mapleads-engine/internal/scrape/email"
	"mapleads-engine/internal/scrape/places"
	"mapleads-engine/internal/scrape/types"
	"mapleads-engine/internal/scrape/util"
	"mapleads-engine/internal/secrets"
	"mapleads-engine/internal/store"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml, bootstrapped from config/config.yml)")
		dataDir   = flag.String("data-dir", "", "data directory (default: $MAPLEADS_DATA_DIR or .)")
		every     = flag.String("every", "", "repeat the run on this interval (e.g. 6h); empty runs once")
		setAPIKey = flag.String("set-api-key", "", "store a Places API key in the OS keychain and exit")
	)
	flag.Parse()

	// .env is optional; missing file is fine.
	_ = godotenv.Load()

	if *setAPIKey != "" {
		if err := secrets.SetPlacesAPIKey(*setAPIKey); err != nil {
			log.Fatalf("store api key: %v", err)
		}
		log.Println("api key stored in keychain")
		return
	}

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("MAPLEADS_DATA_DIR")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One run at a time per data dir; two concurrent runs would fight over
	// the output files and the lead store.
	lock := flock.New(filepath.Join(dir, "mapleads.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock data dir: %v", err)
	}
	if !locked {
		log.Fatalf("another run is already active in %s", dir)
	}
	defer lock.Unlock()

	userCfgPath := *cfgPath
	if userCfgPath == "" {
		defaultCfgPath := filepath.Join("config", "config.yml")
		userCfgPath, err = config.EnsureUserConfig(dir, defaultCfgPath)
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("[config] error: %s", e)
		}
		os.Exit(1)
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func(ctx context.Context) error {
		return run(ctx, cfg)
	}

	if *every != "" {
		interval, err := time.ParseDuration(*every)
		if err != nil || interval <= 0 {
			log.Fatalf("invalid -every value %q", *every)
		}
		scheduler.Every(ctx, interval, "run", runOnce)
		return
	}

	if err := runOnce(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

// run executes one full pipeline pass. Errors returned here are setup
// failures; everything downstream degrades and still exports.
func run(ctx context.Context, cfg config.Config) error {
	runID := uuid.New().String()
	startedAt := time.Now().UTC()
	log.Printf("[run %s] starting source=%s regions=%d cap=%d",
		runID, cfg.Source.Kind, len(cfg.Search.Regions), cfg.Search.MaxResults)

	limiter := util.NewHostLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	var (
		source  types.Source
		fetcher email.PageFetcher
		cleanup func()
	)

	switch cfg.Source.Kind {
	case "places":
		apiKey, err := secrets.GetPlacesAPIKey()
		if err != nil {
			return err
		}
		source = places.New(places.Options{
			APIKey:     apiKey,
			MaxPages:   cfg.Source.Places.MaxPages,
			TokenDelay: cfg.TokenDelay(),
			Limiter:    limiter,
		})
		fetcher = email.NewHTTPFetcher(cfg.PageTimeout())
		cleanup = func() {}

	case "browser":
		session, err := browser.NewSession(ctx, browser.Options{
			Headless:      cfg.Source.Browser.Headless,
			NavTimeout:    cfg.NavTimeout(),
			ScrollSettle:  cfg.ScrollSettle(),
			ScrollTimeout: cfg.ScrollTimeout(),
			Limiter:       limiter,
		})
		if err != nil {
			return err
		}
		source = session
		fetcher = &browser.PageFetcher{Session: session}
		cleanup = session.Close

	default:
		// NormalizeAndValidate already rejects this; belt and suspenders.
		return os.ErrInvalid
	}
	defer cleanup()

	extractor := email.New(fetcher, email.Options{
		ProbePaths:    cfg.Enrich.ProbePaths,
		RequireScheme: cfg.Source.Kind == "browser",
		Limiter:       limiter,
	})

	var leadStore *store.DB
	var skipKnown map[string]struct{}
	if cfg.Output.Store != "" {
		db, err := store.Open(filepath.Join(cfg.App.DataDir, cfg.Output.Store))
		if err != nil {
			return err
		}
		defer db.Close()
		leadStore = db

		if cfg.Search.SkipKnown {
			skipKnown, err = db.KnownPlaceIDs(ctx)
			if err != nil {
				return err
			}
			log.Printf("[run %s] skipping %d known places", runID, len(skipKnown))
		}
	}

	hub := events.NewHub()
	progress := hub.Subscribe()
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for evt := range progress {
			switch evt.Type {
			case events.ListingAdded:
				log.Printf("[progress] %d collected (last: %s, %s)", evt.Count, evt.Listing, evt.Region)
			case events.RegionDone:
				log.Printf("[progress] region %s done, added %d", evt.Region, evt.Count)
			case events.RegionFailed:
				log.Printf("[progress] region %s failed, skipped", evt.Region)
			case events.CapReached:
				log.Printf("[progress] result cap reached at %d, winding down", evt.Count)
			}
		}
	}()

	p := pipeline.New(source, extractor, hub, pipeline.Options{
		MaxResults:     cfg.Search.MaxResults,
		PerRegionMax:   cfg.Search.PerRegionMax,
		RegionAttempts: cfg.Search.RegionAttempts,
		RegionWorkers:  cfg.Concurrency.Regions,
		ListingWorkers: cfg.Concurrency.Listings,
		ListingDelay:   cfg.ListingDelay(),
		RegionStagger:  2 * time.Second,
		EmailEnabled:   cfg.Enrich.EmailEnabled,
		SkipKnown:      skipKnown,
	})

	regions := make([]domain.Region, 0, len(cfg.Search.Regions))
	for _, r := range cfg.Search.Regions {
		q := r.Query
		if q == "" {
			q = cfg.Search.Query
		}
		regions = append(regions, domain.Region{Name: r.Name, Query: q, Lat: r.Lat, Lng: r.Lng})
	}

	rs, statuses, runErr := p.Run(ctx, regions)
	if runErr != nil {
		// Interrupted runs still export what they collected.
		log.Printf("[run %s] interrupted: %v", runID, runErr)
	}

	hub.Unsubscribe(progress)
	<-progressDone

	items := rs.Items()
	records := export.FromListings(items)
	log.Printf("[run %s] collected %d records", runID, len(records))

	if cfg.Output.CSV != "" {
		path := filepath.Join(cfg.App.DataDir, cfg.Output.CSV)
		if err := export.WriteCSVFile(path, records); err != nil {
			return err
		}
		log.Printf("[run %s] wrote %s", runID, path)
	}
	if cfg.Output.JSON != "" {
		path := filepath.Join(cfg.App.DataDir, cfg.Output.JSON)
		if err := export.WriteJSONFile(path, records); err != nil {
			return err
		}
		log.Printf("[run %s] wrote %s", runID, path)
	}
	if cfg.Output.Report != "" {
		rep := report.Build(runID, cfg.Source.Kind, startedAt, items, statuses)
		path := filepath.Join(cfg.App.DataDir, cfg.Output.Report)
		if err := rep.WriteFile(path); err != nil {
			return err
		}
		log.Printf("[run %s] wrote %s", runID, path)
	}

	if leadStore != nil {
		stored := 0
		for _, l := range items {
			added, err := leadStore.UpsertLead(context.Background(), l)
			if err != nil {
				log.Printf("[store] upsert failed place=%s err=%v", l.ID, err)
				continue
			}
			if added {
				stored++
			}
		}
		log.Printf("[run %s] stored %d new leads", runID, stored)
	}

	return nil
}
