package shellext

// WindowRef is one entry of the List reply. The extension only guarantees the
// id here; everything else comes from GetDetails.
type WindowRef struct {
	ID      uint32 `json:"id"`
	Title   string `json:"title,omitempty"`
	WMClass string `json:"wm_class,omitempty"`
}

// Window carries the full per-window metadata reported by GetDetails.
type Window struct {
	ID              uint32 `json:"id"`
	Title           string `json:"title"`
	WMClass         string `json:"wm_class"`
	WMClassInstance string `json:"wm_class_instance,omitempty"`
	PID             int32  `json:"pid,omitempty"`
	Focus           bool   `json:"focus,omitempty"`
	InWorkspace     bool   `json:"in_current_workspace,omitempty"`
	Maximized       int    `json:"maximized"`
	CanClose        bool   `json:"canclose,omitempty"`
	CanMaximize     bool   `json:"canmaximize,omitempty"`
	CanMinimize     bool   `json:"canminimize,omitempty"`
	X               int32  `json:"x,omitempty"`
	Y               int32  `json:"y,omitempty"`
	Width           int32  `json:"width,omitempty"`
	Height          int32  `json:"height,omitempty"`
	Workspace       int32  `json:"workspace,omitempty"`
	Monitor         int32  `json:"monitor,omitempty"`
}

// IsMaximized reports whether the window is maximized on at least one axis.
// The extension encodes the maximized state as a bit field, not a boolean.
func (w Window) IsMaximized() bool {
	return w.Maximized > 0
}

// DisplayTitle returns the window title with a fallback for unnamed windows.
func (w Window) DisplayTitle() string {
	if w.Title == "" {
		return "Untitled Window"
	}
	return w.Title
}

// DisplayClass returns the WM class with a fallback for windows that do not
// report one.
func (w Window) DisplayClass() string {
	if w.WMClass == "" {
		return "unknown"
	}
	return w.WMClass
}
