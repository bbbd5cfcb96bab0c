package menu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/example/wincom/internal/config"
	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/shellext"
)

const defaultRefreshInterval = 10 * time.Second

// trayController renders window updates into the system tray.
type trayController interface {
	Run(ctx context.Context, updates <-chan []shellext.Window) error
}

// Runner polls the Window Commander extension and synchronises the tray menu
// with the current window list.
type Runner struct {
	client          shellext.Client
	refreshInterval time.Duration

	mu          sync.RWMutex
	lastWindows []shellext.Window
	lastDigest  string

	tray            trayController
	updates         chan []shellext.Window
	refreshRequests chan struct{}
}

// NewRunner constructs a Runner over the given extension client.
func NewRunner(client shellext.Client, opts config.Options) *Runner {
	interval := defaultRefreshInterval
	if opts.RefreshSeconds > 0 {
		interval = time.Duration(opts.RefreshSeconds) * time.Second
	}

	r := &Runner{
		client:          client,
		refreshInterval: interval,
		refreshRequests: make(chan struct{}, 1),
	}
	r.tray = newTrayController(client, r.requestRefresh)
	r.updates = make(chan []shellext.Window, 1)
	return r
}

// Start polls the extension and feeds the tray until the context is canceled.
func (r *Runner) Start(ctx context.Context) error {
	logging.Debugf("tray runner initialising with refresh interval %s", r.refreshInterval)

	var trayErr <-chan error
	if r.tray != nil {
		ch := make(chan error, 1)
		trayErr = ch
		go func() {
			ch <- r.tray.Run(ctx, r.updates)
		}()
	}
	defer func() {
		if r.updates != nil {
			close(r.updates)
		}
	}()

	if err := r.syncOnce(ctx); err != nil {
		log.Printf("initial window sync failed: %v", err)
	} else {
		log.Printf("wincom tray tracking %d windows", len(r.LatestWindows()))
	}

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("wincom tray agent stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("tray refresh failed: %v", err)
			}
		case <-r.refreshRequests:
			logging.Debugf("manual refresh requested")
			if err := r.syncOnce(ctx); err != nil {
				log.Printf("manual tray refresh failed: %v", err)
			}
		case err := <-trayErr:
			return err
		}
	}
}

// LatestWindows returns the most recently fetched window list.
func (r *Runner) LatestWindows() []shellext.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shellext.Window, len(r.lastWindows))
	copy(out, r.lastWindows)
	return out
}

// syncOnce fetches the window list and republishes the tray state when it
// changed. A fetch failure keeps the previous menu visible.
func (r *Runner) syncOnce(ctx context.Context) error {
	windows, err := r.client.Windows(ctx)
	if err != nil {
		return err
	}
	logging.Debugf("fetched %d windows from extension", len(windows))

	digest := hashWindows(windows)

	r.mu.Lock()
	if digest != "" && digest == r.lastDigest {
		r.mu.Unlock()
		return nil
	}
	r.lastWindows = make([]shellext.Window, len(windows))
	copy(r.lastWindows, windows)
	r.lastDigest = digest
	r.mu.Unlock()

	logging.Debugf("published tray state with %d windows (digest=%s)", len(windows), digest)
	r.publish(windows)
	return nil
}

func (r *Runner) requestRefresh() {
	if r.refreshRequests == nil {
		return
	}
	select {
	case r.refreshRequests <- struct{}{}:
	default:
	}
}

func (r *Runner) publish(windows []shellext.Window) {
	if r.updates == nil {
		return
	}

	payload := make([]shellext.Window, len(windows))
	copy(payload, windows)

	select {
	case r.updates <- payload:
	default:
		select {
		case <-r.updates:
		default:
		}
		select {
		case r.updates <- payload:
		default:
		}
	}
}

func hashWindows(windows []shellext.Window) string {
	if len(windows) == 0 {
		return ""
	}

	payload, err := json.Marshal(windows)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
