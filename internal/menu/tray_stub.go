//go:build !cgo && !windows
// +build !cgo,!windows

package menu

import (
	"context"
	"errors"

	"github.com/example/wincom/internal/shellext"
)

type stubController struct{}

func newTrayController(shellext.Client, func()) trayController {
	return stubController{}
}

// Run returns an error indicating tray functionality is unavailable without cgo.
func (stubController) Run(context.Context, <-chan []shellext.Window) error {
	return errors.New("system tray is unavailable without cgo support")
}
