// ABOUTME: Tests for demo script selection in the CLI entrypoint.
package main

import "testing"

func TestScriptByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"data-analysis", "data-analysis"},
		{"failure", "failure"},
		{"confirmation", "confirmation"},
		{"", "data-analysis"},
	}
	for _, tt := range tests {
		if got := scriptByName(tt.name).Name; got != tt.want {
			t.Errorf("scriptByName(%q).Name = %q, want %q", tt.name, got, tt.want)
		}
	}
}
