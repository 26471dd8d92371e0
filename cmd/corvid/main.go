package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"

	"corvid/pkg/cleaner"
	"corvid/pkg/corpus"
	"corvid/pkg/markov"
	"corvid/pkg/sources"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to the JSON config file")
	archivePath := flag.String("archive", "", "convert a tweet archive CSV into the corpus, then exit")
	debug := flag.Bool("debug", false, "generate and log instead of posting")
	flag.Parse()

	if err := run(*configPath, *archivePath, *debug); err != nil {
		slog.Error("Corvid run failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, archivePath string, debugFlag bool) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if debugFlag {
		config.Bot.Debug = true
	}

	var logLevel slog.Level
	switch strings.ToLower(config.Bot.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	logger.Info("Starting corvid", "version", Version, "commit", Commit, "build_date", BuildDate)

	if err = os.MkdirAll(config.Bot.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := initDB(config.Bot.CorpusDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = corpus.SetupSchema(db); err != nil {
		return fmt.Errorf("failed to setup corpus schema: %w", err)
	}
	store, err := corpus.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create corpus store: %w", err)
	}
	defer store.Close()
	store.SetLogger(logger)

	ctx := context.Background()

	if archivePath != "" {
		return importArchive(ctx, config, store, logger, archivePath)
	}

	// The bot is meant to fire from cron far more often than it should
	// post, so most invocations stop right here.
	if !config.Bot.Debug && config.Bot.Odds > 1 && rand.IntN(config.Bot.Odds) != 0 {
		logger.Info("Sitting this one out", "odds", config.Bot.Odds)
		return nil
	}

	pipeline, err := cleaner.New(config.Cleaner.Rules, config.Cleaner.Exclude)
	if err != nil {
		return fmt.Errorf("failed to build cleaning pipeline: %w", err)
	}

	texts, err := gatherSources(ctx, config, store, logger)
	if err != nil {
		return err
	}
	texts = pipeline.Prepare(texts)
	if len(texts) == 0 {
		logger.Warn("No usable source texts, nothing to generate from")
		return nil
	}

	tokenizer := markov.NewDefaultTokenizer()
	model := markov.Build(tokenizer, config.Markov.Order, texts)

	stats := model.Stats()
	logger.Debug("Model built",
		"source_texts", len(texts),
		"windows", stats.Windows,
		"transitions", stats.Transitions,
		"beginnings", stats.Beginnings,
		"vocabulary", stats.Vocabulary,
	)

	genOpts := []markov.GenerateOption{
		markov.WithMaxWords(config.Markov.MaxWords),
		markov.WithMinWords(config.Markov.MinWords),
	}
	text := model.Generate(genOpts...)
	if text == "" {
		logger.Warn("Model generated an empty text, nothing to post")
		return nil
	}
	text = buildPostProcessor(config.Markov, model, tokenizer, genOpts)(text)

	if config.Bot.Debug {
		logger.Info("Debug mode, not posting", "text", text)
		return nil
	}

	return publish(ctx, config, logger, text)
}

// buildPostProcessor assembles the optional output transforms from their
// configured odds. Zero odds disables a transform, one applies it always.
func buildPostProcessor(cfg *MarkovConfig, model *markov.Model, tokenizer markov.Tokenizer, genOpts []markov.GenerateOption) markov.PostProcessor {
	var steps []markov.PostProcessor
	if cfg.TrimOdds > 0 {
		steps = append(steps, markov.Maybe(nil, cfg.TrimOdds, markov.TrimLastWord(tokenizer)))
	}
	if cfg.StitchOdds > 0 {
		steps = append(steps, markov.Maybe(nil, cfg.StitchOdds, markov.Stitch(model, genOpts...)))
	}
	return markov.Compose(steps...)
}

// gatherSources collects raw candidate texts from every configured source.
// Feed fetches also land in the corpus database, so the model keeps
// training on posts the feeds no longer return. Individual source failures
// are logged, not fatal.
func gatherSources(ctx context.Context, config *Config, store *corpus.Store, logger *slog.Logger) ([]string, error) {
	var texts []string

	if config.Sources.StaticFile != "" {
		posts, err := sources.ReadPostsFile(config.Sources.StaticFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("Failed to read static corpus file", "path", config.Sources.StaticFile, "error", err)
			}
		} else {
			logger.Debug("Loaded static corpus file", "path", config.Sources.StaticFile, "posts", len(posts))
			texts = append(texts, posts...)
		}
	}

	// Feed posts all go through the store. When the stored corpus is in
	// use, training reads them back from there instead of the fresh
	// slices, so a post never counts twice.
	var feedTexts []string

	if len(config.Sources.MastodonAccounts) > 0 {
		mc, err := sources.NewMastodonClient(sources.MastodonConfig{
			BaseURL:     config.Platforms.MastodonBaseURL,
			AccessToken: os.Getenv("MASTODON_ACCESS_TOKEN"),
		}, nil, logger)
		if err != nil {
			logger.Warn("Mastodon sources configured but client unavailable", "error", err)
		} else {
			for _, acct := range config.Sources.MastodonAccounts {
				posts, err := mc.Statuses(ctx, acct)
				if err != nil {
					logger.Warn("Failed to fetch Mastodon statuses", "account", acct, "error", err)
					continue
				}
				if _, err = store.AddPosts(ctx, "mastodon:"+acct, posts); err != nil {
					logger.Warn("Failed to store Mastodon posts", "account", acct, "error", err)
				}
				feedTexts = append(feedTexts, posts...)
			}
		}
	}

	if len(config.Sources.BlueskyAccounts) > 0 {
		bc := sources.NewBlueskyClient(sources.BlueskyConfig{
			Host: config.Platforms.BlueskyHost,
		}, nil, logger)
		for _, handle := range config.Sources.BlueskyAccounts {
			posts, err := bc.Posts(ctx, handle, config.Sources.BlueskyFeedLimit)
			if err != nil {
				logger.Warn("Failed to fetch Bluesky posts", "account", handle, "error", err)
				continue
			}
			if _, err = store.AddPosts(ctx, "bluesky:"+handle, posts); err != nil {
				logger.Warn("Failed to store Bluesky posts", "account", handle, "error", err)
			}
			feedTexts = append(feedTexts, posts...)
		}
	}

	if len(config.Sources.ScrapeTargets) > 0 {
		scraper := sources.NewScraper(nil, logger)
		for _, target := range config.Sources.ScrapeTargets {
			posts, err := scraper.Scrape(ctx, target.URL, target.Elements)
			if err != nil {
				logger.Warn("Failed to scrape page", "url", target.URL, "error", err)
				continue
			}
			if _, err = store.AddPosts(ctx, "scrape:"+target.URL, posts); err != nil {
				logger.Warn("Failed to store scraped texts", "url", target.URL, "error", err)
			}
			feedTexts = append(feedTexts, posts...)
		}
	}

	if config.Sources.UseCorpusDB {
		stored, err := store.Texts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus database: %w", err)
		}
		logger.Debug("Loaded stored corpus", "posts", len(stored))
		texts = append(texts, stored...)
	} else {
		texts = append(texts, feedTexts...)
	}

	return texts, nil
}

// publish posts the text to every enabled platform. A failure on one
// platform doesn't stop the others.
func publish(ctx context.Context, config *Config, logger *slog.Logger, text string) error {
	posted := false

	if config.Platforms.MastodonPosting {
		mc, err := sources.NewMastodonClient(sources.MastodonConfig{
			BaseURL:     config.Platforms.MastodonBaseURL,
			AccessToken: os.Getenv("MASTODON_ACCESS_TOKEN"),
		}, nil, logger)
		if err != nil {
			logger.Error("Mastodon posting enabled but client unavailable", "error", err)
		} else if err = mc.Post(ctx, text); err != nil {
			logger.Error("Failed to post to Mastodon", "error", err)
		} else {
			posted = true
		}
	}

	if config.Platforms.BlueskyPosting {
		bc := sources.NewBlueskyClient(sources.BlueskyConfig{
			Host:       config.Platforms.BlueskyHost,
			Identifier: os.Getenv("BLUESKY_UID"),
			Password:   os.Getenv("BLUESKY_PWD"),
		}, nil, logger)
		if err := bc.Login(ctx); err != nil {
			logger.Error("Failed to log in to Bluesky", "error", err)
		} else if err = bc.Post(ctx, text); err != nil {
			logger.Error("Failed to post to Bluesky", "error", err)
		} else {
			posted = true
		}
	}

	if !posted {
		logger.Warn("No platform accepted the post", "text", text)
	}
	return nil
}

// importArchive converts a tweet archive CSV into the static corpus file
// and the corpus database, then returns without generating anything.
func importArchive(ctx context.Context, config *Config, store *corpus.Store, logger *slog.Logger, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	posts, stats, err := sources.ReadArchive(f, config.Sources.IgnoreRetweets)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if config.Sources.StaticFile != "" {
		if err = sources.WritePostsFile(config.Sources.StaticFile, posts); err != nil {
			return err
		}
	}
	added, err := store.AddPosts(ctx, "archive", posts)
	if err != nil {
		return fmt.Errorf("failed to store archive posts: %w", err)
	}

	logger.Info("Archive imported",
		"posts", stats.Posts,
		"retweets", stats.Retweets,
		"stored", added,
	)
	return nil
}
