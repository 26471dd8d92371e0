package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"corvid/pkg/cleaner"
	"corvid/pkg/sources"

	"github.com/natefinch/atomic"
)

// BotConfig holds the run-level settings of the bot.
type BotConfig struct {
	// Debug makes every run generate and log instead of posting, and
	// bypasses the odds gate.
	Debug bool `json:"debug"`
	// Odds is the 1-in-N chance that an invocation actually posts.
	Odds         int    `json:"odds"`
	LogLevel     string `json:"log_level"`
	DataDir      string `json:"data_dir"`
	CorpusDBPath string `json:"corpus_database_path"`
}

// MarkovConfig holds the chain and sampling parameters.
type MarkovConfig struct {
	Order    int `json:"order"`
	MaxWords int `json:"max_words"`
	MinWords int `json:"min_words"`
	// TrimOdds and StitchOdds are 1-in-N chances for the respective
	// post-processing steps. Zero disables a step entirely.
	TrimOdds   int `json:"trim_odds"`
	StitchOdds int `json:"stitch_odds"`
}

// CleanerConfig holds the text-cleaning rules and the exclusion filter.
type CleanerConfig struct {
	Rules []cleaner.Rule `json:"rules"`
	// Exclude is a regex; raw source texts matching it never enter the
	// corpus. Empty disables the filter.
	Exclude string `json:"exclude"`
}

// ScrapeTarget names one web page and the elements to pull text from.
type ScrapeTarget struct {
	URL      string                    `json:"url"`
	Elements []sources.ElementSelector `json:"elements"`
}

// SourcesConfig selects where source texts come from.
type SourcesConfig struct {
	// StaticFile is a newline-delimited corpus file, empty to skip.
	StaticFile string `json:"static_file"`
	// UseCorpusDB trains on every post stored in the corpus database in
	// addition to whatever the feeds return this run.
	UseCorpusDB      bool           `json:"use_corpus_db"`
	IgnoreRetweets   bool           `json:"ignore_retweets"`
	MastodonAccounts []string       `json:"mastodon_accounts"`
	BlueskyAccounts  []string       `json:"bluesky_accounts"`
	BlueskyFeedLimit int            `json:"bluesky_feed_limit"`
	ScrapeTargets    []ScrapeTarget `json:"scrape_targets"`
}

// PlatformsConfig selects where generated text gets posted. Credentials
// never live here; they come from the environment.
type PlatformsConfig struct {
	MastodonPosting bool   `json:"mastodon_posting"`
	MastodonBaseURL string `json:"mastodon_base_url"`
	BlueskyPosting  bool   `json:"bluesky_posting"`
	BlueskyHost     string `json:"bluesky_host"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Bot       *BotConfig       `json:"bot_config"`
	Markov    *MarkovConfig    `json:"markov_config"`
	Cleaner   *CleanerConfig   `json:"cleaner_config"`
	Sources   *SourcesConfig   `json:"sources_config"`
	Platforms *PlatformsConfig `json:"platforms_config"`
}

// DefaultBotConfig creates a bot configuration with default values.
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		Debug:        false,
		Odds:         8,
		LogLevel:     "info",
		DataDir:      "./data",
		CorpusDBPath: "./data/corvid_corpus.db",
	}
}

func DefaultMarkovConfig() *MarkovConfig {
	return &MarkovConfig{
		Order:      2,
		MaxWords:   50,
		MinWords:   10,
		TrimOdds:   0,
		StitchOdds: 0,
	}
}

func DefaultCleanerConfig() *CleanerConfig {
	return &CleanerConfig{
		Rules:   cleaner.DefaultRules(),
		Exclude: "",
	}
}

func DefaultSourcesConfig() *SourcesConfig {
	return &SourcesConfig{
		StaticFile:       "./data/corpus.txt",
		UseCorpusDB:      true,
		IgnoreRetweets:   true,
		MastodonAccounts: []string{},
		BlueskyAccounts:  []string{},
		BlueskyFeedLimit: 100,
		ScrapeTargets:    []ScrapeTarget{},
	}
}

func DefaultPlatformsConfig() *PlatformsConfig {
	return &PlatformsConfig{
		MastodonPosting: false,
		MastodonBaseURL: "",
		BlueskyPosting:  false,
		BlueskyHost:     sources.DefaultBlueskyHost,
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := &Config{
		Bot:       DefaultBotConfig(),
		Markov:    DefaultMarkovConfig(),
		Cleaner:   DefaultCleanerConfig(),
		Sources:   DefaultSourcesConfig(),
		Platforms: DefaultPlatformsConfig(),
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the bot can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		// For other errors (e.g., permission denied), return the error.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal the JSON from the file into the config struct.
	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}
