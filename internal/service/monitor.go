package service

import (
	"context"
	"log"
	"time"

	"github.com/example/wincom/internal/logging"
)

const (
	pingInterval   = 30 * time.Second
	pingTimeout    = 5 * time.Second
	reconnectDelay = 2 * time.Second
)

// busMonitor watches the session bus and drops the cached client after a
// failed ping, so a GNOME Shell restart does not require a service restart.
type busMonitor struct {
	ctx      context.Context
	svc      *Service
	interval time.Duration
	delay    time.Duration
}

func newBusMonitor(ctx context.Context, svc *Service) *busMonitor {
	return &busMonitor{
		ctx:      ctx,
		svc:      svc,
		interval: pingInterval,
		delay:    reconnectDelay,
	}
}

func (m *busMonitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkOnce()
		}
	}
}

func (m *busMonitor) checkOnce() {
	client := m.svc.peekClient()
	if client == nil {
		return
	}

	pingCtx, cancel := context.WithTimeout(m.ctx, pingTimeout)
	err := client.Ping(pingCtx)
	cancel()
	if err == nil {
		logging.Debugf("session bus ping ok")
		return
	}

	log.Printf("session bus ping failed, reconnecting: %v", err)
	m.svc.dropClient()

	select {
	case <-m.ctx.Done():
		return
	case <-time.After(m.delay):
	}

	// currentClient reconnects lazily; trigger it so the next request is
	// served by a healthy connection.
	if c := m.svc.currentClient(); c != nil {
		reCtx, cancel := context.WithTimeout(m.ctx, pingTimeout)
		if err := c.Ping(reCtx); err != nil {
			logging.Debugf("session bus still unavailable: %v", err)
		} else {
			log.Printf("session bus connection restored")
		}
		cancel()
	}
}
