// ABOUTME: Layered CLI configuration: defaults, then config.yaml, then
// ABOUTME: TUSK_* environment variables, then flags. Later layers win.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/tusk/transport"
)

var (
	ErrNoServerURL = errors.New(
		"no server url configured; pass -url, set TUSK_URL, or run with -demo",
	)
	ErrBadTimeout    = errors.New("timeout must be positive")
	ErrUnknownScript = errors.New("unknown demo script (want data-analysis, failure, or confirmation)")
)

// config holds everything the CLI needs, flattened across all layers.
type config struct {
	url           string
	useSocket     bool
	demo          bool
	demoScript    string
	timeout       time.Duration
	transcriptLog string
	verbose       bool
	showVersion   bool
}

func defaultConfig() config {
	return config{
		demoScript: "data-analysis",
		timeout:    transport.DefaultAskTimeout,
	}
}

// fileConfig mirrors ~/.config/tusk/config.yaml. Pointer fields
// distinguish "absent" from a zero value.
type fileConfig struct {
	URL           string `yaml:"url"`
	WS            *bool  `yaml:"ws"`
	Timeout       string `yaml:"timeout"`
	TranscriptLog string `yaml:"transcript_log"`
	Verbose       *bool  `yaml:"verbose"`
}

// loadConfig builds the effective config from all layers and validates
// it. Validation is skipped for -version, which exits before anything
// needs the values.
func loadConfig(args []string) (config, error) {
	cfg := defaultConfig()

	if dir, err := defaultConfigDir(); err == nil {
		if err := applyConfigFile(&cfg, filepath.Join(dir, "config.yaml")); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, args); err != nil {
		return cfg, err
	}
	if cfg.showVersion {
		return cfg, nil
	}
	return cfg, validate(cfg)
}

// applyConfigFile overlays values from a YAML file. A missing file is
// fine; a malformed one is a hard error so typos do not pass silently.
func applyConfigFile(cfg *config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.URL != "" {
		cfg.url = fc.URL
	}
	if fc.WS != nil {
		cfg.useSocket = *fc.WS
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout in %s: %w", path, err)
		}
		cfg.timeout = d
	}
	if fc.TranscriptLog != "" {
		cfg.transcriptLog = fc.TranscriptLog
	}
	if fc.Verbose != nil {
		cfg.verbose = *fc.Verbose
	}
	return nil
}

// applyEnv overlays TUSK_* environment variables.
func applyEnv(cfg *config) error {
	if v := os.Getenv("TUSK_URL"); v != "" {
		cfg.url = v
	}
	if v := os.Getenv("TUSK_WS"); v != "" {
		cfg.useSocket = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("TUSK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse TUSK_TIMEOUT: %w", err)
		}
		cfg.timeout = d
	}
	if v := os.Getenv("TUSK_TRANSCRIPT_LOG"); v != "" {
		cfg.transcriptLog = v
	}
	if v := os.Getenv("TUSK_VERBOSE"); v != "" {
		cfg.verbose = v == "true" || v == "1" || v == "yes"
	}
	return nil
}

// applyFlags overlays command-line flags, the last layer.
func applyFlags(cfg *config, args []string) error {
	fs := flag.NewFlagSet("tusk", flag.ContinueOnError)
	fs.StringVar(&cfg.url, "url", cfg.url, "Agent server base URL")
	fs.BoolVar(&cfg.useSocket, "ws", cfg.useSocket, "Use the persistent WebSocket transport")
	fs.BoolVar(&cfg.demo, "demo", cfg.demo, "Start an in-process demo server and connect to it")
	fs.StringVar(&cfg.demoScript, "demo-script", cfg.demoScript, "Demo script: data-analysis, failure, confirmation")
	fs.DurationVar(&cfg.timeout, "timeout", cfg.timeout, "One-shot request timeout")
	fs.StringVar(&cfg.transcriptLog, "transcript-log", cfg.transcriptLog, "Append a conversation transcript to this file")
	fs.BoolVar(&cfg.verbose, "verbose", cfg.verbose, "Show agent thinking in the console")
	fs.BoolVar(&cfg.showVersion, "version", cfg.showVersion, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	return fs.Parse(args)
}

var demoScripts = map[string]bool{
	"data-analysis": true,
	"failure":       true,
	"confirmation":  true,
}

// validate enforces the cross-field rules the layers cannot.
func validate(cfg config) error {
	if cfg.timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrBadTimeout, cfg.timeout)
	}
	if cfg.demo {
		if !demoScripts[cfg.demoScript] {
			return fmt.Errorf("%w: %q", ErrUnknownScript, cfg.demoScript)
		}
		return nil
	}
	if cfg.url == "" {
		return ErrNoServerURL
	}
	u, err := url.Parse(cfg.url)
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url must be http or https, got %q", cfg.url)
	}
	return nil
}
