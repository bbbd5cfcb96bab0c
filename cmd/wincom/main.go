package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/wincom/internal/config"
	"github.com/example/wincom/internal/ipc"
	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/manifest"
	"github.com/example/wincom/internal/menu"
	"github.com/example/wincom/internal/plugin"
	"github.com/example/wincom/internal/protocol"
	"github.com/example/wincom/internal/security"
	"github.com/example/wincom/internal/service"
	"github.com/example/wincom/internal/shellext"
)

const remoteRequestTimeout = 10 * time.Second

func main() {
	log.SetFlags(0)

	args, debug, remote, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if debug {
		logging.EnableDebug()
	}

	secret := resolveSecret()
	if secret == "" {
		log.Fatal("WINCOM_SECRET environment variable is required")
	}

	if len(args) == 0 {
		args = []string{"serve"}
	}

	if err := handleCLI(secret, remote, args); err != nil {
		log.Fatalf("%v", err)
	}
}

func resolveSecret() string {
	if secret := strings.TrimSpace(os.Getenv("WINCOM_SECRET")); secret != "" {
		return secret
	}
	return strings.TrimSpace(config.CompiledSecret)
}

// parseGlobalFlags strips flags that apply to every subcommand. Builds driven
// by -ldflags sometimes leak stray -X pairs into os.Args, so those are
// tolerated and dropped.
func parseGlobalFlags(args []string) (filtered []string, debug bool, remote bool, err error) {
	skipNext := false
	for i, arg := range args {
		if skipNext {
			skipNext = false
			continue
		}

		switch {
		case arg == "-X" || arg == "--X":
			if i+1 < len(args) && strings.Contains(args[i+1], "=") {
				skipNext = true
			}
			continue
		case strings.HasPrefix(arg, "-X") || strings.HasPrefix(arg, "--X"):
			continue
		}

		name, value, hasValue := splitFlag(arg)
		switch name {
		case "debug":
			debug, err = flagBool(value, hasValue)
			if err != nil {
				return nil, false, false, fmt.Errorf("invalid -debug value %q", value)
			}
		case "remote":
			remote, err = flagBool(value, hasValue)
			if err != nil {
				return nil, false, false, fmt.Errorf("invalid -remote value %q", value)
			}
		default:
			filtered = append(filtered, arg)
		}
	}
	return filtered, debug, remote, nil
}

func splitFlag(arg string) (name, value string, hasValue bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", false
	}
	trimmed := strings.TrimLeft(arg, "-")
	if idx := strings.Index(trimmed, "="); idx >= 0 {
		return strings.ToLower(trimmed[:idx]), trimmed[idx+1:], true
	}
	return strings.ToLower(trimmed), "", false
}

func flagBool(value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}
	return strconv.ParseBool(value)
}

func handleCLI(secret string, remote bool, args []string) error {
	command := normalizeCommand(args[0])
	rest := args[1:]

	switch command {
	case "serve":
		return runServe(secret)
	case "search":
		return handleSearch(secret, remote, rest)
	case "windows":
		return handleWindows(secret, remote, rest)
	case "describe":
		return handleDescribe(secret, remote)
	case "launch":
		return handleLaunch(secret, remote, rest)
	case "activate", "close", "maximize", "unmaximize", "minimize":
		return handleAction(command, rest)
	case "tray":
		return runTray(secret)
	case "config":
		return handleConfig(secret, rest)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func normalizeCommand(arg string) string {
	trimmed := strings.TrimLeft(arg, "-/")
	return strings.ToLower(trimmed)
}

func runServe(secret string) error {
	svc, err := service.New(secret)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("service exited: %w", err)
	}
	return nil
}

func runTray(secret string) error {
	cfg, err := config.Load(secret)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	client, err := shellext.Connect()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w (is the Window Commander extension installed and enabled?)", err)
	}
	defer client.CloseBus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := menu.NewRunner(client, cfg.Options)
	if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tray exited: %w", err)
	}
	return nil
}

func handleSearch(secret string, remote bool, args []string) error {
	fs := newFlagSet("search")
	query := fs.String("query", "", "launcher query, including the trigger keyword (e.g. \"w firefox\")")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *query == "" {
		return errors.New("missing -query for search")
	}

	var results []plugin.Result
	if remote {
		resp, err := remoteCall(secret, protocol.Request{
			Command: protocol.CommandSearch,
			Query:   *query,
		})
		if err != nil {
			return err
		}
		results = resp.Results
	} else {
		cfg, err := config.Load(secret)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		client, err := shellext.Connect()
		if err != nil {
			return fmt.Errorf("connect to session bus: %w", err)
		}
		defer client.CloseBus()

		ctx, cancel := context.WithTimeout(context.Background(), remoteRequestTimeout)
		defer cancel()
		results = plugin.NewSearcher(client, searchOptions(cfg.Options)).Search(ctx, *query)
	}

	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}

	fmt.Printf("%-5s %-24s %-32s %s\n", "Score", "ID", "Title", "Description")
	for _, r := range results {
		fmt.Printf("%-5d %-24s %-32s %s\n", r.Score, r.ID, truncate(r.Title, 32), truncate(r.Description, 48))
	}
	return nil
}

func handleWindows(secret string, remote bool, args []string) error {
	fs := newFlagSet("windows")
	asJSON := fs.Bool("json", false, "print raw window metadata as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var windows []shellext.Window
	if remote {
		resp, err := remoteCall(secret, protocol.Request{Command: protocol.CommandWindows})
		if err != nil {
			return err
		}
		windows = resp.Windows
	} else {
		client, err := shellext.Connect()
		if err != nil {
			return fmt.Errorf("connect to session bus: %w", err)
		}
		defer client.CloseBus()

		ctx, cancel := context.WithTimeout(context.Background(), remoteRequestTimeout)
		defer cancel()
		windows, err = client.Windows(ctx)
		if err != nil {
			return fmt.Errorf("fetch windows: %w", err)
		}
	}

	if *asJSON {
		return printJSON(windows)
	}

	if len(windows) == 0 {
		fmt.Println("No open windows")
		return nil
	}

	fmt.Printf("%-10s %-24s %-40s %s\n", "ID", "Class", "Title", "State")
	for _, win := range windows {
		fmt.Printf("%-10d %-24s %-40s %s\n", win.ID, truncate(win.DisplayClass(), 24), truncate(win.DisplayTitle(), 40), windowState(win))
	}
	return nil
}

func windowState(win shellext.Window) string {
	var parts []string
	if win.Focus {
		parts = append(parts, "focused")
	}
	if win.IsMaximized() {
		parts = append(parts, "maximized")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func handleDescribe(secret string, remote bool) error {
	if remote {
		resp, err := remoteCall(secret, protocol.Request{Command: protocol.CommandDescribe})
		if err != nil {
			return err
		}
		return printJSON(resp.Plugin)
	}

	m, err := manifest.Load()
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	return printJSON(m)
}

func handleLaunch(secret string, remote bool, args []string) error {
	fs := newFlagSet("launch")
	resultID := fs.String("id", "", "result id to launch (e.g. activate:12345)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *resultID == "" {
		return errors.New("missing -id for launch")
	}

	if remote {
		if _, err := remoteCall(secret, protocol.Request{
			Command:  protocol.CommandLaunch,
			ResultID: *resultID,
		}); err != nil {
			return err
		}
		fmt.Printf("Launched %s\n", *resultID)
		return nil
	}

	client, err := shellext.Connect()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer client.CloseBus()

	ctx, cancel := context.WithTimeout(context.Background(), remoteRequestTimeout)
	defer cancel()
	if err := plugin.NewLauncher(client).Launch(ctx, *resultID); err != nil {
		return err
	}
	fmt.Printf("Launched %s\n", *resultID)
	return nil
}

func handleAction(command string, args []string) error {
	fs := newFlagSet(command)
	id := fs.Uint("id", 0, "window id")
	var force *bool
	if command == "close" {
		force = fs.Bool("force", false, "force-close without prompting the application")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("missing -id for %s", command)
	}

	client, err := shellext.Connect()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer client.CloseBus()

	ctx, cancel := context.WithTimeout(context.Background(), remoteRequestTimeout)
	defer cancel()

	forced := force != nil && *force
	if err := plugin.Execute(ctx, client, plugin.Action(command), uint32(*id), forced); err != nil {
		return fmt.Errorf("%s window %d: %w", command, *id, err)
	}
	fmt.Printf("Sent %s to window %d\n", command, *id)
	return nil
}

func handleConfig(secret string, args []string) error {
	if len(args) == 0 {
		return errors.New("config requires a subcommand: show or set")
	}

	switch normalizeCommand(args[0]) {
	case "show":
		return handleConfigShow(secret)
	case "set":
		return handleConfigSet(secret, args[1:])
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

func handleConfigShow(secret string) error {
	cfg, err := config.Load(secret)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return printJSON(cfg.Options)
}

func handleConfigSet(secret string, args []string) error {
	fs := newFlagSet("config set")
	keywords := fs.String("keywords", "", "comma-separated trigger keywords")
	refresh := fs.Int("refresh", 0, "tray refresh interval in seconds")
	includeMinimize := fs.Bool("include-minimize", true, "offer minimize rows in search results")
	maxResults := fs.Int("max-results", 0, "cap on search results (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(secret)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "keywords":
			cfg.Options.Keywords = parseList(*keywords)
			changed = true
		case "refresh":
			cfg.Options.RefreshSeconds = *refresh
			changed = true
		case "include-minimize":
			cfg.Options.IncludeMinimize = *includeMinimize
			changed = true
		case "max-results":
			cfg.Options.MaxResults = *maxResults
			changed = true
		}
	})
	if !changed {
		return errors.New("no settings provided; see config set -h")
	}

	cfg.Options.Normalize()
	if err := config.Save(cfg, secret); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println("Configuration updated")
	return printJSON(cfg.Options)
}

// remoteCall sends one authenticated request to a running plugin service and
// returns the decoded response.
func remoteCall(secret string, req protocol.Request) (protocol.Response, error) {
	req.Token = security.ResolveServiceToken(secret)
	req.ID = uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), remoteRequestTimeout)
	defer cancel()

	endpoint := ipc.DefaultEndpoint()
	conn, err := endpoint.DialContext(ctx)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("dial service at %s: %w (is `wincom serve` running?)", endpoint.String(), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	logging.Debugf("sending %s request %s with token %s", req.Command, req.ID, logging.MaskIdentifier(req.Token))
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	var resp protocol.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return protocol.Response{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return protocol.Response{}, fmt.Errorf("service error: %s", resp.Error)
	}
	if resp.ID != req.ID {
		return protocol.Response{}, fmt.Errorf("response correlation id %q does not match request %q", resp.ID, req.ID)
	}
	return resp, nil
}

func searchOptions(o config.Options) plugin.Options {
	return plugin.Options{
		Keywords:        o.Keywords,
		IncludeMinimize: o.IncludeMinimize,
		MaxResults:      o.MaxResults,
	}
}

func printJSON(v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(payload))
	return nil
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	return fs
}
