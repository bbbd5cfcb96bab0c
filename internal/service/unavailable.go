package service

import (
	"context"

	"github.com/example/wincom/internal/shellext"
)

// unavailableClient stands in for the extension client while the session bus
// cannot be reached. Every operation reports the original connect error.
type unavailableClient struct {
	err error
}

func (u unavailableClient) Windows(context.Context) ([]shellext.Window, error) {
	return nil, u.err
}

func (u unavailableClient) List(context.Context) ([]shellext.WindowRef, error) {
	return nil, u.err
}

func (u unavailableClient) Details(context.Context, uint32) (shellext.Window, error) {
	return shellext.Window{}, u.err
}

func (u unavailableClient) Activate(context.Context, uint32) error    { return u.err }
func (u unavailableClient) Close(context.Context, uint32, bool) error { return u.err }
func (u unavailableClient) Maximize(context.Context, uint32) error    { return u.err }
func (u unavailableClient) Unmaximize(context.Context, uint32) error  { return u.err }
func (u unavailableClient) Minimize(context.Context, uint32) error    { return u.err }
func (u unavailableClient) Ping(context.Context) error                { return u.err }
func (u unavailableClient) CloseBus() error                           { return nil }
