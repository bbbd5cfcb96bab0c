//go:build cgo || windows
// +build cgo windows

package menu

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/plugin"
	"github.com/example/wincom/internal/shellext"
)

// extensionPageURL points at the GNOME extension this tray depends on.
const extensionPageURL = "https://extensions.gnome.org/extension/4933/window-commander/"

const maxTitleLength = 48

type systrayController struct {
	client         shellext.Client
	requestRefresh func()

	mu      sync.Mutex
	entries []trayEntry
}

type trayEntry struct {
	item   *systray.MenuItem
	cancel context.CancelFunc
}

func newTrayController(client shellext.Client, requestRefresh func()) trayController {
	return &systrayController{client: client, requestRefresh: requestRefresh}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan []shellext.Window) error {
	done := make(chan struct{})

	go systray.Run(func() {
		if iconData != nil {
			systray.SetIcon(iconData)
		}
		systray.SetTooltip("Window Commander")

		refresh := systray.AddMenuItem("Refresh Now", "Reload the window list")
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-refresh.ClickedCh:
					if !ok {
						return
					}
					if c.requestRefresh != nil {
						c.requestRefresh()
					}
				}
			}
		}()

		extension := systray.AddMenuItem("Get Window Commander Extension", "Open the extension page")
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-extension.ClickedCh:
					if !ok {
						return
					}
					go openURL(extensionPageURL)
				}
			}
		}()

		quit := systray.AddMenuItem("Quit", "Exit the tray agent")
		go func() {
			for {
				select {
				case <-ctx.Done():
					systray.Quit()
					return
				case <-quit.ClickedCh:
					systray.Quit()
					return
				}
			}
		}()

		systray.AddSeparator()

		go c.listen(ctx, updates)
	}, func() {
		c.shutdown()
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *systrayController) listen(ctx context.Context, updates <-chan []shellext.Window) {
	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case windows, ok := <-updates:
			if !ok {
				systray.Quit()
				return
			}
			c.render(ctx, windows)
		}
	}
}

func (c *systrayController) render(ctx context.Context, windows []shellext.Window) {
	c.mu.Lock()
	old := c.entries
	c.entries = nil
	c.mu.Unlock()

	for _, entry := range old {
		entry.cancel()
		if entry.item != nil {
			entry.item.Hide()
		}
	}

	var newEntries []trayEntry
	if len(windows) == 0 {
		mi := systray.AddMenuItem("No open windows", "Nothing reported by the extension")
		mi.Disable()
		newEntries = append(newEntries, trayEntry{item: mi, cancel: func() {}})
	}
	for _, win := range windows {
		newEntries = append(newEntries, c.addWindowItem(ctx, win)...)
	}

	c.mu.Lock()
	c.entries = newEntries
	c.mu.Unlock()
}

// addWindowItem adds one top-level entry per window with its actions in a
// submenu. The parent entry itself only hosts the submenu.
func (c *systrayController) addWindowItem(ctx context.Context, win shellext.Window) []trayEntry {
	parent := systray.AddMenuItem(truncateTitle(win.DisplayTitle()), win.DisplayClass())
	parentCtx, cancelParent := context.WithCancel(ctx)
	go drainClicks(parentCtx, parent.ClickedCh)

	entries := []trayEntry{{item: parent, cancel: cancelParent}}

	entries = append(entries, c.addActionItem(ctx, parent, win.ID, plugin.ActionActivate, "Activate"))
	entries = append(entries, c.addActionItem(ctx, parent, win.ID, plugin.ActionClose, "Close"))
	if win.IsMaximized() {
		entries = append(entries, c.addActionItem(ctx, parent, win.ID, plugin.ActionUnmaximize, "Unmaximize"))
	} else {
		entries = append(entries, c.addActionItem(ctx, parent, win.ID, plugin.ActionMaximize, "Maximize"))
	}
	if win.CanMinimize {
		entries = append(entries, c.addActionItem(ctx, parent, win.ID, plugin.ActionMinimize, "Minimize"))
	}

	return entries
}

func (c *systrayController) addActionItem(ctx context.Context, parent *systray.MenuItem, windowID uint32, action plugin.Action, label string) trayEntry {
	mi := parent.AddSubMenuItem(label, fmt.Sprintf("%s window %d", label, windowID))
	itemCtx, cancel := context.WithCancel(ctx)

	go func() {
		for {
			select {
			case <-itemCtx.Done():
				return
			case _, ok := <-mi.ClickedCh:
				if !ok {
					return
				}
				go c.execute(ctx, action, windowID)
			}
		}
	}()

	return trayEntry{item: mi, cancel: cancel}
}

func (c *systrayController) execute(ctx context.Context, action plugin.Action, windowID uint32) {
	if err := plugin.Execute(ctx, c.client, action, windowID, false); err != nil {
		logging.Debugf("tray action %s on window %d failed: %v", action, windowID, err)
		return
	}
	if c.requestRefresh != nil {
		c.requestRefresh()
	}
}

func (c *systrayController) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		entry.cancel()
	}
	c.entries = nil
}

func drainClicks(ctx context.Context, ch <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
		}
	}
}

func truncateTitle(title string) string {
	if len(title) <= maxTitleLength {
		return title
	}
	return title[:maxTitleLength-3] + "..."
}
