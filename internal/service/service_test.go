package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/example/wincom/internal/config"
	"github.com/example/wincom/internal/manifest"
	"github.com/example/wincom/internal/protocol"
	"github.com/example/wincom/internal/shellext"
)

type stubClient struct {
	windows []shellext.Window
	err     error
	pingErr error

	actions []string
	pings   int
	closed  int
}

func (f *stubClient) Windows(context.Context) ([]shellext.Window, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.windows, nil
}

func (f *stubClient) List(context.Context) ([]shellext.WindowRef, error) {
	return nil, f.err
}

func (f *stubClient) Details(context.Context, uint32) (shellext.Window, error) {
	return shellext.Window{}, f.err
}

func (f *stubClient) Activate(_ context.Context, id uint32) error {
	f.actions = append(f.actions, "activate")
	return f.err
}

func (f *stubClient) Close(_ context.Context, id uint32, force bool) error {
	f.actions = append(f.actions, "close")
	return f.err
}

func (f *stubClient) Maximize(context.Context, uint32) error {
	f.actions = append(f.actions, "maximize")
	return f.err
}

func (f *stubClient) Unmaximize(context.Context, uint32) error {
	f.actions = append(f.actions, "unmaximize")
	return f.err
}

func (f *stubClient) Minimize(context.Context, uint32) error {
	f.actions = append(f.actions, "minimize")
	return f.err
}

func (f *stubClient) Ping(context.Context) error {
	f.pings++
	return f.pingErr
}

func (f *stubClient) CloseBus() error {
	f.closed++
	return nil
}

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Default()
	if err != nil {
		t.Fatalf("load default manifest: %v", err)
	}
	return m
}

func testService(t *testing.T, connect connectFunc) *Service {
	t.Helper()
	t.Setenv("WINCOM_SERVICE_TOKEN", "")

	opts := config.DefaultOptions()
	srv, err := newService("test-secret", opts, testManifest(t), connect)
	if err != nil {
		t.Fatalf("newService returned error: %v", err)
	}
	return srv
}

func TestNewServiceRequiresSecret(t *testing.T) {
	t.Setenv("WINCOM_SERVICE_TOKEN", "")
	if _, err := newService("", config.DefaultOptions(), testManifest(t), nil); err == nil {
		t.Fatalf("expected error without secret or token")
	}
}

func TestAuthorize(t *testing.T) {
	srv := testService(t, nil)

	if srv.authorize("") {
		t.Fatalf("empty token must be rejected")
	}
	if srv.authorize("wrong") {
		t.Fatalf("wrong token must be rejected")
	}
	if !srv.authorize(srv.token) {
		t.Fatalf("resolved token must be accepted")
	}
}

func TestDispatchDescribe(t *testing.T) {
	srv := testService(t, nil)

	resp := srv.dispatch(context.Background(), protocol.Request{ID: "r1", Command: protocol.CommandDescribe})
	if resp.ID != "r1" {
		t.Fatalf("response must echo the correlation id, got %q", resp.ID)
	}
	if resp.Plugin == nil || resp.Plugin.Name == "" {
		t.Fatalf("describe must return the manifest, got %#v", resp.Plugin)
	}
}

func TestDispatchSearch(t *testing.T) {
	client := &stubClient{windows: []shellext.Window{
		{ID: 4, Title: "Browser", WMClass: "firefox"},
	}}
	srv := testService(t, func() (shellext.Client, error) { return client, nil })

	resp := srv.dispatch(context.Background(), protocol.Request{
		ID:      "r2",
		Command: protocol.CommandSearch,
		Query:   "w browser",
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(resp.Results) == 0 {
		t.Fatalf("expected search results")
	}
	if resp.Results[0].ID != "activate:4" {
		t.Fatalf("expected activate row first, got %s", resp.Results[0].ID)
	}
}

func TestDispatchLaunch(t *testing.T) {
	client := &stubClient{}
	srv := testService(t, func() (shellext.Client, error) { return client, nil })

	resp := srv.dispatch(context.Background(), protocol.Request{
		Command:  protocol.CommandLaunch,
		ResultID: "minimize:4",
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(client.actions) != 1 || client.actions[0] != "minimize" {
		t.Fatalf("expected minimize forwarded, got %#v", client.actions)
	}
}

func TestDispatchLaunchMalformedID(t *testing.T) {
	srv := testService(t, func() (shellext.Client, error) { return &stubClient{}, nil })

	resp := srv.dispatch(context.Background(), protocol.Request{
		Command:  protocol.CommandLaunch,
		ResultID: "nonsense",
	})
	if resp.Error == "" {
		t.Fatalf("expected error for malformed result id")
	}
}

func TestDispatchWindows(t *testing.T) {
	client := &stubClient{windows: []shellext.Window{{ID: 1, Title: "One"}}}
	srv := testService(t, func() (shellext.Client, error) { return client, nil })

	resp := srv.dispatch(context.Background(), protocol.Request{Command: protocol.CommandWindows})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if len(resp.Windows) != 1 || resp.Windows[0].ID != 1 {
		t.Fatalf("unexpected windows payload: %#v", resp.Windows)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	srv := testService(t, nil)

	resp := srv.dispatch(context.Background(), protocol.Request{Command: "menu.get"})
	if resp.Error == "" {
		t.Fatalf("expected error for unknown command")
	}
}

func TestSearchDegradesWhenBusUnavailable(t *testing.T) {
	srv := testService(t, func() (shellext.Client, error) {
		return nil, errors.New("no session bus")
	})

	resp := srv.dispatch(context.Background(), protocol.Request{
		Command: protocol.CommandSearch,
		Query:   "w anything",
	})
	if len(resp.Results) != 1 {
		t.Fatalf("expected single synthetic result, got %d", len(resp.Results))
	}
	if resp.Results[0].ID != "error:no-connection" {
		t.Fatalf("expected no-connection row, got %s", resp.Results[0].ID)
	}

	resp = srv.dispatch(context.Background(), protocol.Request{Command: protocol.CommandWindows})
	if resp.Error == "" {
		t.Fatalf("windows command must surface the connect error")
	}
}

func TestHandleConnectionUnauthorized(t *testing.T) {
	srv := testService(t, nil)

	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handleConnection(context.Background(), server)
		close(done)
	}()

	req := protocol.Request{Token: "bogus", ID: "x", Command: protocol.CommandDescribe}
	if err := json.NewEncoder(client).Encode(req); err != nil {
		t.Fatalf("encode request: %v", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(client).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	client.Close()
	<-done

	if resp.Error != "unauthorized" {
		t.Fatalf("expected unauthorized, got %q", resp.Error)
	}
	if resp.ID != "x" {
		t.Fatalf("unauthorized responses still echo the id, got %q", resp.ID)
	}
}

func TestHandleConnectionAuthorizedRoundTrip(t *testing.T) {
	client := &stubClient{windows: []shellext.Window{{ID: 2, Title: "Editor", WMClass: "code"}}}
	srv := testService(t, func() (shellext.Client, error) { return client, nil })

	server, conn := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.handleConnection(context.Background(), server)
		close(done)
	}()

	req := protocol.Request{Token: srv.token, ID: "q1", Command: protocol.CommandSearch, Query: "w editor"}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		t.Fatalf("encode request: %v", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	conn.Close()
	<-done

	if resp.ID != "q1" {
		t.Fatalf("expected correlation id echoed, got %q", resp.ID)
	}
	if len(resp.Results) == 0 {
		t.Fatalf("expected results over the wire")
	}
}

func TestMonitorReconnectsAfterFailedPing(t *testing.T) {
	healthy := &stubClient{}
	broken := &stubClient{pingErr: errors.New("connection reset")}

	clients := []shellext.Client{broken, healthy}
	srv := testService(t, func() (shellext.Client, error) {
		next := clients[0]
		if len(clients) > 1 {
			clients = clients[1:]
		}
		return next, nil
	})

	// Prime the cached client with the broken connection.
	if got := srv.currentClient(); got != broken {
		t.Fatalf("expected broken client cached first")
	}

	m := newBusMonitor(context.Background(), srv)
	m.delay = time.Millisecond
	m.checkOnce()

	if broken.closed == 0 {
		t.Fatalf("expected broken bus connection to be closed")
	}
	if got := srv.peekClient(); got != healthy {
		t.Fatalf("expected reconnect to cache the healthy client")
	}
	if healthy.pings == 0 {
		t.Fatalf("expected monitor to verify the new connection")
	}
}

func TestMonitorSkipsWhenNoClientCached(t *testing.T) {
	srv := testService(t, func() (shellext.Client, error) {
		t.Fatalf("connect must not be called without a cached client")
		return nil, nil
	})

	m := newBusMonitor(context.Background(), srv)
	m.checkOnce()
}
