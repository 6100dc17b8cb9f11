// ABOUTME: Help display for the tusk CLI with grouped flags, examples,
// ABOUTME: environment status, and the config file location.
package main

import (
	"fmt"
	"io"
	"os"
)

const tuskASCII = `
  _                _
 | |_ _   _  ___ | | __
 | __| | | |/ __|| |/ /
 | |_| |_| |\__ \|   <
  \__|\__,_||___/|_|\_\
`

// printHelp writes the full usage screen to w.
func printHelp(w io.Writer, ver string) {
	fmt.Fprint(w, tuskASCII)
	fmt.Fprintf(w, "tusk %s - execution trace console for a data-analysis agent\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tusk -url <base-url>          Connect over one-shot HTTP + SSE")
	fmt.Fprintln(w, "  tusk -url <base-url> -ws      Connect over a persistent WebSocket")
	fmt.Fprintln(w, "  tusk -demo                    Run against a built-in scripted agent")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -url <url>             Agent server base URL")
	fmt.Fprintln(w, "  -ws                    Use the persistent WebSocket transport")
	fmt.Fprintln(w, "  -demo                  Start an in-process demo server and connect to it")
	fmt.Fprintln(w, "  -demo-script <name>    data-analysis (default), failure, confirmation")
	fmt.Fprintln(w, "  -timeout <dur>         One-shot request timeout (default: 5m0s)")
	fmt.Fprintln(w, "  -transcript-log <path> Append a conversation transcript to this file")
	fmt.Fprintln(w, "  -verbose               Show agent thinking in the console")
	fmt.Fprintln(w, "  -version               Print version and exit")
	fmt.Fprintln(w, "  -help                  Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Keys:")
	fmt.Fprintln(w, "  enter      Ask a question (prefix with ! to send feedback)")
	fmt.Fprintln(w, "  ctrl+r     Browse archived steps (enter views, esc closes)")
	fmt.Fprintln(w, "  esc        Return from an archived step to the live trace")
	fmt.Fprintln(w, "  ctrl+c     Cancel the running question, or quit when idle")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  tusk -demo")
	fmt.Fprintln(w, "  tusk -demo -ws -verbose")
	fmt.Fprintln(w, "  tusk -url http://127.0.0.1:8080 -timeout 2m")
	fmt.Fprintln(w, "  tusk -url http://127.0.0.1:8080 -ws -transcript-log ./session.log")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  TUSK_URL               %s\n", envStatus("TUSK_URL"))
	fmt.Fprintf(w, "  TUSK_WS                %s\n", envStatus("TUSK_WS"))
	fmt.Fprintf(w, "  TUSK_TIMEOUT           %s\n", envStatus("TUSK_TIMEOUT"))
	fmt.Fprintf(w, "  TUSK_TRANSCRIPT_LOG    %s\n", envStatus("TUSK_TRANSCRIPT_LOG"))
	fmt.Fprintf(w, "  TUSK_VERBOSE           %s\n", envStatus("TUSK_VERBOSE"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config file: ~/.config/tusk/config.yaml (flags and env win)")
}

// envStatus reports whether the named variable is set, never its value.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
