// ABOUTME: Tests for the help screen and environment status display.
package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPrintHelpMentionsEveryFlag(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "1.2.3")
	out := buf.String()

	for _, want := range []string{
		"tusk 1.2.3",
		"-url", "-ws", "-demo", "-demo-script", "-timeout",
		"-transcript-log", "-verbose", "-version",
		"TUSK_URL", "config.yaml",
		"ctrl+r", "ctrl+c",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestEnvStatus(t *testing.T) {
	t.Setenv("TUSK_HELP_TEST", "x")
	if got := envStatus("TUSK_HELP_TEST"); got != "[set]" {
		t.Errorf("envStatus = %q, want [set]", got)
	}

	t.Setenv("TUSK_HELP_TEST", "")
	os.Unsetenv("TUSK_HELP_TEST")
	if got := envStatus("TUSK_HELP_TEST"); got != "[not set]" {
		t.Errorf("envStatus = %q, want [not set]", got)
	}
}
