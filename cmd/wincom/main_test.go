package main

import "testing"

func TestParseGlobalFlagsIgnoresBuildXWithSeparateValue(t *testing.T) {
	args := []string{"search", "-X", "internal/config.CompiledSecret=value", "--debug"}
	filtered, debug, remote, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags returned error: %v", err)
	}
	if !debug {
		t.Fatalf("expected debug flag to be enabled")
	}
	if remote {
		t.Fatalf("remote flag should not be set")
	}
	if len(filtered) != 1 || filtered[0] != "search" {
		t.Fatalf("unexpected filtered args: %#v", filtered)
	}
}

func TestParseGlobalFlagsIgnoresBuildXInline(t *testing.T) {
	args := []string{"windows", "-Xinternal/config.CompiledSecret=value", "-remote=true"}
	filtered, debug, remote, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags returned error: %v", err)
	}
	if debug {
		t.Fatalf("debug flag should not be set")
	}
	if !remote {
		t.Fatalf("remote flag should be set")
	}
	if len(filtered) != 1 || filtered[0] != "windows" {
		t.Fatalf("unexpected filtered args: %#v", filtered)
	}
}

func TestParseGlobalFlagsIgnoresQuotedBuildX(t *testing.T) {
	args := []string{"serve", "-X\"internal/config.CompiledSecret=value\""}
	filtered, debug, remote, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags returned error: %v", err)
	}
	if debug || remote {
		t.Fatalf("unexpected flag states: debug=%v remote=%v", debug, remote)
	}
	if len(filtered) != 1 || filtered[0] != "serve" {
		t.Fatalf("unexpected filtered args: %#v", filtered)
	}
}

func TestParseGlobalFlagsKeepsSubcommandFlags(t *testing.T) {
	args := []string{"close", "-id=42", "-force", "-debug"}
	filtered, debug, _, err := parseGlobalFlags(args)
	if err != nil {
		t.Fatalf("parseGlobalFlags returned error: %v", err)
	}
	if !debug {
		t.Fatalf("expected debug flag to be enabled")
	}
	want := []string{"close", "-id=42", "-force"}
	if len(filtered) != len(want) {
		t.Fatalf("unexpected filtered args: %#v", filtered)
	}
	for i := range want {
		if filtered[i] != want[i] {
			t.Fatalf("unexpected filtered args: %#v", filtered)
		}
	}
}

func TestParseGlobalFlagsRejectsBadBoolValue(t *testing.T) {
	if _, _, _, err := parseGlobalFlags([]string{"-debug=sometimes"}); err == nil {
		t.Fatalf("expected error for invalid boolean value")
	}
}

func TestNormalizeCommand(t *testing.T) {
	cases := map[string]string{
		"serve":    "serve",
		"--Search": "search",
		"-WINDOWS": "windows",
		"/config":  "config",
	}
	for input, want := range cases {
		if got := normalizeCommand(input); got != want {
			t.Fatalf("normalizeCommand(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" w, win ,window,,")
	want := []string{"w", "win", "window"}
	if len(got) != len(want) {
		t.Fatalf("parseList returned %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseList returned %#v", got)
		}
	}
	if parseList("") != nil {
		t.Fatalf("empty input must return nil")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	if got := truncate("a very long window title", 10); got != "a very ..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
