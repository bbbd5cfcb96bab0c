package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Action identifies one of the window operations a result can carry.
type Action string

const (
	ActionActivate   Action = "activate"
	ActionClose      Action = "close"
	ActionMaximize   Action = "maximize"
	ActionUnmaximize Action = "unmaximize"
	ActionMinimize   Action = "minimize"
)

// errorResultPrefix marks synthetic results that carry a message instead of a
// window action. Launching them is a no-op.
const errorResultPrefix = "error:"

// ErrNoConnectionID is the id of the synthetic result shown when the
// extension cannot be reached.
const ErrNoConnectionID = errorResultPrefix + "no-connection"

// Result is a single launcher search result.
type Result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Score       int    `json:"score"`
	Offset      int    `json:"offset"`
}

// FormatResultID encodes an action and window id into a launchable result id.
func FormatResultID(action Action, windowID uint32) string {
	return fmt.Sprintf("%s:%d", action, windowID)
}

// ParseResultID splits a result id back into its action and window id.
// Synthetic error ids are reported via the ok return so callers can skip them
// without treating them as failures.
func ParseResultID(id string) (action Action, windowID uint32, ok bool, err error) {
	if strings.HasPrefix(id, errorResultPrefix) {
		return "", 0, false, nil
	}

	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, false, fmt.Errorf("malformed result id %q", id)
	}

	action = Action(parts[0])
	switch action {
	case ActionActivate, ActionClose, ActionMaximize, ActionUnmaximize, ActionMinimize:
	default:
		return "", 0, false, fmt.Errorf("unknown window action %q", parts[0])
	}

	raw, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid window id in %q: %w", id, err)
	}

	return action, uint32(raw), true, nil
}
