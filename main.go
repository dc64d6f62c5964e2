package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "modernc.org/sqlite"

	"github.com/scipunch/ethwatch/cache"
	"github.com/scipunch/ethwatch/catalog"
	"github.com/scipunch/ethwatch/config"
	"github.com/scipunch/ethwatch/feed"
	"github.com/scipunch/ethwatch/fetcher"
	"github.com/scipunch/ethwatch/release"
	"github.com/scipunch/ethwatch/report"
)

func main() {
	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var cfgPath string
	var cleanCache bool
	var windowDays int
	var delayMS int
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.BoolVar(&cleanCache, "clean", false, "remove all seen-cache entries")
	flag.IntVar(&windowDays, "days", 0, "recency window in days (overrides config)")
	flag.IntVar(&delayMS, "delay-ms", 0, "pause between requests in milliseconds (overrides config)")
	flag.Parse()

	// Read config and create if default is missing
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}

	if windowDays > 0 {
		conf.WindowDays = windowDays
	}
	if delayMS > 0 {
		conf.RequestDelayMS = delayMS
	}

	// Load credentials; running without a token is fine, the API just
	// applies its anonymous rate limit. Scaffold an empty credentials
	// file on first run so there is a place to put the token.
	credPath := config.DefaultCredentialsPath()
	creds, err := config.ReadCredentials(credPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := config.WriteCredentials(credPath, creds); err != nil {
			slog.Warn("failed to write default credentials file", "path", credPath, "error", err)
		}
	} else if err != nil {
		log.Fatalf("failed to read credentials: %s", err)
	}
	token := config.Token(creds)
	if token == "" {
		slog.Info("no GitHub token configured, using anonymous rate limits")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := initDB(conf.CachePath)
	if err != nil {
		log.Fatalf("failed to open seen cache database: %v", err)
	}
	defer db.Close()

	// Initialize the seen cache on the shared database connection
	seen, err := cache.NewFromDB(db)
	if err != nil {
		log.Fatalf("failed to initialize seen cache: %v", err)
	}

	// Handle -clean flag
	if cleanCache {
		if err := seen.Clear(); err != nil {
			log.Fatalf("failed to clear seen cache: %v", err)
		}
		slog.Info("seen cache cleared successfully")
		return
	}

	if stats, err := seen.Stats(); err != nil {
		slog.Warn("failed to get seen cache stats", "error", err)
	} else {
		slog.Info("seen cache initialized", "entries", stats.Entries)
	}

	releases := release.NewResolver(fetcher.New(token))
	feeds := feed.NewResolver(fetcher.New("", fetcher.WithAccept(feed.AcceptHeader)))

	repos := catalog.Repos()
	for _, r := range conf.ExtraRepos {
		repos = append(repos, catalog.Repo{DisplayName: r.Name, Owner: r.Owner, Name: r.Repo})
	}
	feedEntries := append([]catalog.Feed{}, catalog.Feeds...)
	for _, f := range conf.ExtraFeeds {
		feedEntries = append(feedEntries, catalog.Feed{DisplayName: f.Name, URL: f.URL})
	}

	// One entry at a time with a fixed pause in between, to stay clear of
	// the remote rate limit.
	limiter := rate.NewLimiter(rate.Every(conf.RequestDelay()), 1)
	now := time.Now()

	var lines []string

	for _, repo := range repos {
		if err := limiter.Wait(ctx); err != nil {
			slog.Info("interrupted by user during fetch, exiting gracefully")
			return
		}

		rel := releases.LatestRelease(ctx, repo)
		if rel == nil {
			continue
		}
		if rel.Prerelease && !conf.IncludePrereleases {
			slog.Debug("skipping pre-release", "repo", repo.DisplayName, "version", rel.Version)
			continue
		}
		if !report.IsRecent(rel.PublishedAt, now, conf.WindowDays) {
			continue
		}

		line := report.ReleaseLine(rel, now)
		key := repo.Owner + "/" + repo.Name
		if !seen.Seen(cache.KindRelease, key, rel.Version) {
			line += " *new*"
			if err := seen.Mark(cache.KindRelease, key, rel.Version); err != nil {
				slog.Warn("failed to mark release as seen", "repo", key, "error", err)
			}
		}
		lines = append(lines, line)
	}

	var errs []error
	for _, entry := range feedEntries {
		if err := limiter.Wait(ctx); err != nil {
			slog.Info("interrupted by user during fetch, exiting gracefully")
			return
		}

		posts, err := feeds.Posts(ctx, entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("'%s' fetch failed with %w", entry.URL, err))
			continue
		}

		for _, post := range posts {
			if !report.IsRecent(post.PublishedAt, now, conf.WindowDays) {
				continue
			}

			postLines := report.PostLines(post, now)
			if !seen.Seen(cache.KindPost, post.Link, post.Link) {
				postLines[0] += " *new*"
				if err := seen.Mark(cache.KindPost, post.Link, post.Link); err != nil {
					slog.Warn("failed to mark post as seen", "link", post.Link, "error", err)
				}
			}
			lines = append(lines, postLines...)
		}
	}
	if len(errs) > 0 {
		slog.Error("several feeds were not fetched", "feeds", errors.Join(errs...))
	}

	fmt.Printf("Published in the last %d days:\n\n", conf.WindowDays)
	if len(lines) == 0 {
		fmt.Println("Nothing new.")
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

func initDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory at '%s' with %w", filepath.Dir(dbPath), err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s' with %w", dbPath, err)
	}

	return db, nil
}
