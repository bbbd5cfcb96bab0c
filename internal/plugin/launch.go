package plugin

import (
	"context"
	"fmt"

	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/shellext"
)

// Launcher forwards selected results back to the extension.
type Launcher struct {
	client shellext.Client
}

// NewLauncher constructs a Launcher over the given extension client.
func NewLauncher(client shellext.Client) *Launcher {
	return &Launcher{client: client}
}

// Launch executes the action encoded in the result id. Synthetic error rows
// are ignored; malformed or unknown ids are reported as errors.
func (l *Launcher) Launch(ctx context.Context, resultID string) error {
	action, windowID, ok, err := ParseResultID(resultID)
	if err != nil {
		return err
	}
	if !ok {
		logging.Debugf("ignoring non-actionable result %q", resultID)
		return nil
	}

	return Execute(ctx, l.client, action, windowID, false)
}

// Execute forwards one window action to the extension. Close results always
// request a graceful close; force closing is reserved for the CLI.
func Execute(ctx context.Context, client shellext.Client, action Action, windowID uint32, force bool) error {
	switch action {
	case ActionActivate:
		return client.Activate(ctx, windowID)
	case ActionClose:
		return client.Close(ctx, windowID, force)
	case ActionMaximize:
		return client.Maximize(ctx, windowID)
	case ActionUnmaximize:
		return client.Unmaximize(ctx, windowID)
	case ActionMinimize:
		return client.Minimize(ctx, windowID)
	default:
		return fmt.Errorf("unknown window action %q", action)
	}
}
