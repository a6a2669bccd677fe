// Copyright 2025 The CountryServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the country lookup TUI, CLI [DBG] and IPC server.

CountryServe loads the list of the world's countries once at startup and
answers prefix searches against it. A search matches a country when its
common name, its localized name or its official name starts with the query,
ignoring case and surrounding spaces.

Results come in four tiers: nothing found, too many matches (ten or more),
a short list to pick from, or a single country with all its details and the
current weather in its capital.

# Usage

Start the interactive search:

	countryserve

Enable debug logging (written to stderr):

	countryserve -d

Run the line based CLI for testing:

	countryserve -c

Serve msgpack requests on stdin/stdout:

	countryserve -ipc

Use a local restcountries JSON dump instead of the network:

	countryserve -catalog countries.json

# Configuration

Runtime configuration lives in a TOML file, created with defaults on first
run at ~/.config/countryserve/config.toml:

	[catalog]
	primary_url = "https://restcountries.com/v3.1/all?fields=..."
	fallback_url = "https://restcountries.com/v3.1/all"
	locale = "es"
	translation = "spa"
	timeout_seconds = 12

	[weather]
	api_key = ""
	units = "metric"
	lang = "es"
	timeout_seconds = 8

	[cli]
	debounce_ms = 250

Weather lookups need an OpenWeather API key, taken from weather.api_key or
the OPENWEATHER_API_KEY env var. Without one the weather panel says lookups
are disabled and no request is made.

# TUI Mode

Typing waits for a quiet period (debounce_ms) before searching. Use the
arrows and Enter to pick an entry from a list, Esc to clear, Ctrl+R to retry
a failed catalog load and Ctrl+C to quit.

# IPC Protocol

See pkg/server for the message formats:

	{"id": "q1", "q": "spa"}
	{"id": "c1", "action": "country", "name": "Spain"}
	{"id": "h1", "action": "health"}

# Command Line Flags

	-version
	    Show current version
	-d  Enable debug mode with detailed logging
	-c  Run the line based CLI instead of the TUI
	-ipc
	    Run the msgpack IPC server on stdin/stdout
	-config string
	    Path to a custom config file
	-catalog string
	    Local JSON file to load countries from
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/countryserve/internal/cli"
	"github.com/bastiangx/countryserve/internal/logger"
	"github.com/bastiangx/countryserve/internal/tui"
	"github.com/bastiangx/countryserve/internal/utils"
	"github.com/bastiangx/countryserve/pkg/catalog"
	"github.com/bastiangx/countryserve/pkg/config"
	"github.com/bastiangx/countryserve/pkg/render"
	"github.com/bastiangx/countryserve/pkg/server"
	"github.com/bastiangx/countryserve/pkg/session"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "countryserve"
	gh      = "https://github.com/bastiangx/countryserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
// The TUI handles Ctrl+C itself and does not install it.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires config, catalog source and weather client into the selected
// front end. It does not implement logic for them and only manages the flow.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run line CLI -- useful for testing and debugging")
	ipcMode := flag.Bool("ipc", false, "Run the msgpack IPC server on stdin/stdout")
	configPath := flag.String("config", "", "Path to a custom config file")
	catalogFile := flag.String("catalog", "", "Local restcountries JSON file to load instead of the network")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	cfg, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config: %s", config.GetActiveConfigPath(usedConfig))

	if *catalogFile != "" {
		resolved := *catalogFile
		if pathResolver, err := utils.NewPathResolver(); err == nil {
			resolved, err = pathResolver.ResolveFile(*catalogFile)
			if err != nil {
				log.Fatalf("Catalog file not found: %s", resolved)
			}
		}
		cfg.Catalog.File = resolved
		log.Debugf("Using catalog file: %s", resolved)
	}

	source := cfg.Catalog.Source()
	load := func(ctx context.Context) (*catalog.Catalog, error) {
		return catalog.Load(ctx, source, cfg.Catalog.Options()...)
	}
	formatter := render.NewFormatter(cfg.Catalog.LocaleTag())
	client := cfg.Weather.Client()

	log.Debug("Config:",
		"locale", cfg.Catalog.Locale,
		"weather", cfg.Weather.Enabled(),
		"debounce", cfg.CLI.QuietPeriod())

	switch {
	case *ipcMode:
		sigHandler()
		sess := session.New(session.Options{Formatter: formatter, WeatherEnabled: cfg.Weather.Enabled()})
		defer sess.Close()
		srv := server.NewServer(sess, load, client, server.WithWeatherTimeout(cfg.Weather.Timeout()))

		showStartupInfo(usedConfig, cfg.Weather.Enabled())

		if err := srv.Start(context.Background()); err != nil {
			log.Fatalf("Failed to run server: %v", err)
		}

	// CLI is mainly used for testing and dbg purposes.
	case *cliMode:
		sigHandler()
		sess := session.New(session.Options{Formatter: formatter, WeatherEnabled: cfg.Weather.Enabled()})
		defer sess.Close()
		inputHandler := cli.NewInputHandler(sess, load, client, cfg.Weather.Timeout())
		if err := inputHandler.Start(context.Background()); err != nil {
			log.Fatalf("CLI error: %v", err)
		}

	default:
		err := tui.Run(tui.Options{
			Load:           load,
			Weather:        client,
			WeatherEnabled: cfg.Weather.Enabled(),
			WeatherTimeout: cfg.Weather.Timeout(),
			QuietPeriod:    cfg.CLI.QuietPeriod(),
			Formatter:      formatter,
		})
		if err != nil {
			log.Fatalf("TUI error: %v", err)
		}
	}
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ CountryServe ] Countries of the world, with the weather")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(configPath string, weatherEnabled bool) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===============")
	println(" CountryServe ")
	println("===============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Infof("weather: %v", weatherEnabled)
	log.Info("status: ready")
	println("===============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
