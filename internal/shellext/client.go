package shellext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/example/wincom/internal/logging"
)

// D-Bus coordinates of the Window Commander GNOME Shell extension. The
// destination is the shell itself; the extension registers the object below.
const (
	BusDestination = "org.gnome.Shell"
	ObjectPath     = "/org/gnome/Shell/Extensions/WindowCommander"
	InterfaceName  = "org.gnome.Shell.Extensions.WindowCommander"

	methodList       = InterfaceName + ".List"
	methodGetDetails = InterfaceName + ".GetDetails"
	methodActivate   = InterfaceName + ".Activate"
	methodClose      = InterfaceName + ".Close"
	methodMaximize   = InterfaceName + ".Maximize"
	methodUnmaximize = InterfaceName + ".Unmaximize"
	methodMinimize   = InterfaceName + ".Minimize"

	methodPing = "org.freedesktop.DBus.Peer.Ping"
)

// ErrUnavailable indicates the extension could not be reached on the session
// bus, typically because it is not installed or not enabled.
var ErrUnavailable = errors.New("window commander extension unavailable")

// Client exposes the Window Commander extension operations.
type Client interface {
	// Windows returns full details for every listed window. Windows whose
	// detail lookup fails are skipped.
	Windows(ctx context.Context) ([]Window, error)
	// List returns the basic window stubs reported by the extension.
	List(ctx context.Context) ([]WindowRef, error)
	// Details fetches the full metadata for a single window.
	Details(ctx context.Context, id uint32) (Window, error)

	Activate(ctx context.Context, id uint32) error
	Close(ctx context.Context, id uint32, force bool) error
	Maximize(ctx context.Context, id uint32) error
	Unmaximize(ctx context.Context, id uint32) error
	Minimize(ctx context.Context, id uint32) error

	// Ping checks that the shell answers on the session bus.
	Ping(ctx context.Context) error
	// CloseBus releases the underlying bus connection.
	CloseBus() error
}

// busObject is the narrow slice of dbus.BusObject the client consumes,
// injectable for tests.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

type busCloser func() error

type client struct {
	obj      busObject
	closeBus busCloser
}

// Connect opens a private session-bus connection and returns a Client bound
// to the Window Commander object.
func Connect() (Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	logging.Debugf("connected to session bus as %s", conn.Names()[0])
	return &client{
		obj:      conn.Object(BusDestination, dbus.ObjectPath(ObjectPath)),
		closeBus: conn.Close,
	}, nil
}

// newClientWithObject wires a client to an arbitrary bus object. Used by tests.
func newClientWithObject(obj busObject) *client {
	return &client{obj: obj, closeBus: func() error { return nil }}
}

func (c *client) CloseBus() error {
	if c.closeBus == nil {
		return nil
	}
	return c.closeBus()
}

func (c *client) Ping(ctx context.Context) error {
	logging.LogBusCall(methodPing)
	call := c.obj.CallWithContext(ctx, methodPing, 0)
	logging.LogBusReply(methodPing, "", call.Err)
	if call.Err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, call.Err)
	}
	return nil
}

// callString invokes a method whose reply is a single JSON string.
func (c *client) callString(ctx context.Context, method string, args ...interface{}) (string, error) {
	logging.LogBusCall(method, args...)
	call := c.obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		logging.LogBusReply(method, "", call.Err)
		return "", fmt.Errorf("call %s: %w", method, call.Err)
	}

	var payload string
	if err := call.Store(&payload); err != nil {
		logging.LogBusReply(method, "", err)
		return "", fmt.Errorf("decode %s reply: %w", method, err)
	}
	logging.LogBusReply(method, payload, nil)
	return payload, nil
}

// callVoid invokes a method with no meaningful reply.
func (c *client) callVoid(ctx context.Context, method string, args ...interface{}) error {
	logging.LogBusCall(method, args...)
	call := c.obj.CallWithContext(ctx, method, 0, args...)
	logging.LogBusReply(method, "", call.Err)
	if call.Err != nil {
		return fmt.Errorf("call %s: %w", method, call.Err)
	}
	return nil
}

func (c *client) List(ctx context.Context) ([]WindowRef, error) {
	payload, err := c.callString(ctx, methodList)
	if err != nil {
		return nil, err
	}

	var refs []WindowRef
	if err := json.Unmarshal([]byte(payload), &refs); err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", methodList, err)
	}
	return refs, nil
}

func (c *client) Details(ctx context.Context, id uint32) (Window, error) {
	payload, err := c.callString(ctx, methodGetDetails, id)
	if err != nil {
		return Window{}, err
	}

	var win Window
	if err := json.Unmarshal([]byte(payload), &win); err != nil {
		return Window{}, fmt.Errorf("parse %s payload: %w", methodGetDetails, err)
	}
	if win.ID == 0 {
		win.ID = id
	}
	return win, nil
}

func (c *client) Windows(ctx context.Context) ([]Window, error) {
	refs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == 0 {
			logging.Debugf("skipping window stub without id (title=%q)", ref.Title)
			continue
		}
		win, err := c.Details(ctx, ref.ID)
		if err != nil {
			logging.Debugf("skipping window %d: %v", ref.ID, err)
			continue
		}
		windows = append(windows, win)
	}
	return windows, nil
}

func (c *client) Activate(ctx context.Context, id uint32) error {
	return c.callVoid(ctx, methodActivate, id)
}

func (c *client) Close(ctx context.Context, id uint32, force bool) error {
	return c.callVoid(ctx, methodClose, id, force)
}

func (c *client) Maximize(ctx context.Context, id uint32) error {
	return c.callVoid(ctx, methodMaximize, id)
}

func (c *client) Unmaximize(ctx context.Context, id uint32) error {
	return c.callVoid(ctx, methodUnmaximize, id)
}

func (c *client) Minimize(ctx context.Context, id uint32) error {
	return c.callVoid(ctx, methodMinimize, id)
}
