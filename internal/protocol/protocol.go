package protocol

import (
	"github.com/example/wincom/internal/manifest"
	"github.com/example/wincom/internal/plugin"
	"github.com/example/wincom/internal/shellext"
)

const (
	// CommandDescribe requests the plugin manifest from the service.
	CommandDescribe = "plugin.describe"
	// CommandSearch runs a launcher query against the open windows.
	CommandSearch = "plugin.search"
	// CommandLaunch forwards a selected result id to the extension.
	CommandLaunch = "plugin.launch"
	// CommandWindows returns the raw window metadata.
	CommandWindows = "windows.get"
)

// Request is the IPC payload sent from launcher hosts to the plugin service.
// ID is a caller-chosen correlation id echoed back in the response.
type Request struct {
	Token    string `json:"token"`
	ID       string `json:"id,omitempty"`
	Command  string `json:"command"`
	Query    string `json:"query,omitempty"`
	ResultID string `json:"resultId,omitempty"`
}

// Response is the IPC reply emitted by the plugin service.
type Response struct {
	ID      string             `json:"id,omitempty"`
	Error   string             `json:"error,omitempty"`
	Results []plugin.Result    `json:"results,omitempty"`
	Windows []shellext.Window  `json:"windows,omitempty"`
	Plugin  *manifest.Manifest `json:"plugin,omitempty"`
}
