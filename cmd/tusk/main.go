// ABOUTME: CLI entrypoint for the tusk console: config layering, rotating
// ABOUTME: log file, transport selection, demo server, signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/tusk/console"
	"github.com/2389-research/tusk/stub"
	"github.com/2389-research/tusk/trace"
	"github.com/2389-research/tusk/transport"
)

var version = "dev"

func main() {
	loadDotEnv(".env")

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if cfg.showVersion {
		fmt.Printf("tusk %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// run wires the tracker, transport, and console together and blocks
// until the UI exits. Returns the process exit code.
func run(cfg config) int {
	closeLogs, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseURL := cfg.url
	if cfg.demo {
		demoURL, shutdown, err := stub.Launch(scriptByName(cfg.demoScript))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: start demo server: %v\n", err)
			return 1
		}
		defer shutdown()
		baseURL = demoURL
		log.Printf("main: demo server at %s script=%s", demoURL, cfg.demoScript)
	}

	tracker := trace.New()
	defer tracker.Close()

	consoleCfg := console.Config{
		Tracker: tracker,
		Verbose: cfg.verbose,
		Context: ctx,
	}

	if cfg.useSocket {
		sock, err := transport.Dial(ctx, baseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: connect to %s: %v\n", baseURL, err)
			return 1
		}
		defer sock.Close()
		consoleCfg.Agent = console.NewSocketAgent(sock)
		consoleCfg.Persistent = sock
	} else {
		client := transport.NewAskClient(baseURL, transport.WithAskTimeout(cfg.timeout))
		consoleCfg.Agent = console.NewAskAgent(client)
	}

	if cfg.transcriptLog != "" {
		transcript := openTranscript(cfg.transcriptLog)
		defer transcript.Close()
		consoleCfg.Transcript = transcript
	}

	p := tea.NewProgram(console.New(consoleCfg), tea.WithAltScreen())

	// A signal must stop the UI itself, not only the background work.
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// scriptByName maps a validated -demo-script name to its script.
func scriptByName(name string) stub.Script {
	switch name {
	case "failure":
		return stub.FailureScript()
	case "confirmation":
		return stub.ConfirmationScript()
	default:
		return stub.DataAnalysisScript()
	}
}
