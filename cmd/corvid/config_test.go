package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Bot.Odds != 8 {
		t.Errorf("default odds = %d, want 8", config.Bot.Odds)
	}
	if config.Markov.Order != 2 {
		t.Errorf("default order = %d, want 2", config.Markov.Order)
	}
	if config.Markov.MaxWords != 50 || config.Markov.MinWords != 10 {
		t.Errorf("default word bounds = %d/%d, want 50/10", config.Markov.MaxWords, config.Markov.MinWords)
	}
	if len(config.Cleaner.Rules) == 0 {
		t.Error("default config has no cleaning rules")
	}

	// The file should now exist and load back identically.
	if _, err = os.Stat(path); err != nil {
		t.Fatalf("default config file was not written: %v", err)
	}
	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on written file failed: %v", err)
	}
	if *reloaded.Bot != *config.Bot {
		t.Errorf("reloaded bot config = %+v, want %+v", reloaded.Bot, config.Bot)
	}
	if *reloaded.Markov != *config.Markov {
		t.Errorf("reloaded markov config = %+v, want %+v", reloaded.Markov, config.Markov)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := `{"bot_config": {"odds": 3, "log_level": "debug"}, "markov_config": {"order": 3}}`
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Bot.Odds != 3 {
		t.Errorf("odds = %d, want 3 from file", config.Bot.Odds)
	}
	if config.Markov.Order != 3 {
		t.Errorf("order = %d, want 3 from file", config.Markov.Order)
	}
	// Fields absent from the file keep their defaults.
	if config.Markov.MaxWords != 50 {
		t.Errorf("max words = %d, want default 50", config.Markov.MaxWords)
	}
	if !config.Sources.IgnoreRetweets {
		t.Error("ignore_retweets should default to true")
	}
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
