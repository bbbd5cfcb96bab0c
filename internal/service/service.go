package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/example/wincom/internal/config"
	"github.com/example/wincom/internal/ipc"
	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/manifest"
	"github.com/example/wincom/internal/plugin"
	"github.com/example/wincom/internal/protocol"
	"github.com/example/wincom/internal/security"
	"github.com/example/wincom/internal/shellext"
)

const requestTimeout = 30 * time.Second

type connectFunc func() (shellext.Client, error)

// Service brokers launcher plugin requests to the Window Commander extension.
type Service struct {
	token    string
	endpoint ipc.Endpoint
	manifest *manifest.Manifest
	opts     config.Options

	connect connectFunc

	mu     sync.Mutex
	client shellext.Client

	monitor     *busMonitor
	monitorOnce sync.Once
}

// New constructs a Service using the provided encryption secret.
func New(secret string) (*Service, error) {
	cfg, err := config.Load(secret)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	m, err := manifest.Load()
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	return newService(secret, cfg.Options, m, shellext.Connect)
}

func newService(secret string, opts config.Options, m *manifest.Manifest, connect connectFunc) (*Service, error) {
	srv := &Service{
		token:    security.ResolveServiceToken(secret),
		endpoint: ipc.DefaultEndpoint(),
		manifest: m,
		opts:     opts,
		connect:  connect,
	}
	if srv.token == "" {
		return nil, fmt.Errorf("service token could not be resolved; set WINCOM_SERVICE_TOKEN or WINCOM_SECRET")
	}
	return srv, nil
}

// Endpoint exposes the listening endpoint for logging and diagnostics.
func (s *Service) Endpoint() string {
	return s.endpoint.String()
}

// Run starts the listener and serves requests until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	listener, err := s.endpoint.Listen()
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.endpoint.String(), err)
	}
	defer listener.Close()
	defer s.dropClient()

	log.Printf("wincom service listening on %s", s.endpoint.String())

	s.startMonitor(ctx)

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Println("wincom service shutting down")
				return context.Canceled
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				log.Printf("temporary accept error: %v", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept connection: %w", err)
		}

		go s.handleConnection(ctx, conn)
	}
}

func (s *Service) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(requestTimeout))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req protocol.Request
	if err := decoder.Decode(&req); err != nil {
		log.Printf("service: failed to decode request: %v", err)
		return
	}

	if !s.authorize(req.Token) {
		logging.Debugf("rejected request %s with token %s", req.Command, logging.MaskIdentifier(req.Token))
		_ = encoder.Encode(protocol.Response{ID: req.ID, Error: "unauthorized"})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_ = encoder.Encode(s.dispatch(reqCtx, req))
}

func (s *Service) dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	logging.Debugf("dispatching %s (id=%s)", req.Command, req.ID)

	switch req.Command {
	case protocol.CommandDescribe:
		return protocol.Response{ID: req.ID, Plugin: s.manifest}

	case protocol.CommandSearch:
		searcher := plugin.NewSearcher(s.currentClient(), plugin.Options{
			Keywords:        s.opts.Keywords,
			IncludeMinimize: s.opts.IncludeMinimize,
			MaxResults:      s.opts.MaxResults,
		})
		return protocol.Response{ID: req.ID, Results: searcher.Search(ctx, req.Query)}

	case protocol.CommandLaunch:
		if err := plugin.NewLauncher(s.currentClient()).Launch(ctx, req.ResultID); err != nil {
			return protocol.Response{ID: req.ID, Error: err.Error()}
		}
		return protocol.Response{ID: req.ID}

	case protocol.CommandWindows:
		windows, err := s.currentClient().Windows(ctx)
		if err != nil {
			return protocol.Response{ID: req.ID, Error: err.Error()}
		}
		return protocol.Response{ID: req.ID, Windows: windows}

	default:
		return protocol.Response{ID: req.ID, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (s *Service) startMonitor(ctx context.Context) {
	s.monitorOnce.Do(func() {
		s.monitor = newBusMonitor(ctx, s)
		go s.monitor.run()
	})
}

func (s *Service) authorize(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

// currentClient returns the cached extension client, connecting on first use.
// When the session bus cannot be reached an erroring placeholder is returned
// so searches degrade to the synthetic no-connection result.
func (s *Service) currentClient() shellext.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client
	}

	client, err := s.connect()
	if err != nil {
		log.Printf("session bus unavailable: %v", err)
		return unavailableClient{err: err}
	}
	s.client = client
	return s.client
}

func (s *Service) dropClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.CloseBus()
		s.client = nil
	}
}

// peekClient returns the cached client without connecting.
func (s *Service) peekClient() shellext.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}
