package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/wincom/internal/logging"
	"github.com/example/wincom/internal/shellext"
)

// DefaultKeywords trigger the plugin when they prefix a query.
var DefaultKeywords = []string{"w", "win", "window"}

// Scores assigned to the action rows of a matching window. Activation is the
// primary intent, so it always sorts first within a window.
const (
	scoreActivate = 100
	scoreClose    = 90
	scoreMaximize = 80
	scoreMinimize = 70
)

// Icon names resolved by the launcher host's icon theme.
const (
	iconClose      = "window-close"
	iconMaximize   = "view-fullscreen"
	iconUnmaximize = "view-restore"
	iconMinimize   = "go-bottom"
	iconWarning    = "dialog-warning"
)

// Options tune search behavior. The zero value matches the original plugin.
type Options struct {
	// Keywords override DefaultKeywords when non-empty.
	Keywords []string
	// IncludeMinimize adds a minimize row for windows that allow it.
	IncludeMinimize bool
	// MaxResults caps the emitted rows. Zero means unlimited.
	MaxResults int
}

// Searcher maps launcher queries to window action results.
type Searcher struct {
	client shellext.Client
	opts   Options
}

// NewSearcher constructs a Searcher over the given extension client.
func NewSearcher(client shellext.Client, opts Options) *Searcher {
	if len(opts.Keywords) == 0 {
		opts.Keywords = DefaultKeywords
	}
	return &Searcher{client: client, opts: opts}
}

// Keywords returns the active trigger keywords.
func (s *Searcher) Keywords() []string {
	out := make([]string, len(s.opts.Keywords))
	copy(out, s.opts.Keywords)
	return out
}

// Search returns scored results for the query. Queries that do not start
// with a trigger keyword return nil. A failure to reach the extension yields
// a single synthetic result explaining the problem.
func (s *Searcher) Search(ctx context.Context, query string) []Result {
	term, triggered := s.stripTrigger(query)
	if !triggered {
		return nil
	}

	windows, err := s.client.Windows(ctx)
	if err != nil {
		logging.Debugf("window fetch failed: %v", err)
		return []Result{{
			ID:          ErrNoConnectionID,
			Title:       "Window Commander Not Found or Failed",
			Description: "Please ensure the GNOME extension is enabled.",
			Icon:        iconWarning,
			Score:       scoreActivate,
		}}
	}

	var results []Result
	for _, win := range windows {
		if win.ID == 0 {
			continue
		}
		offset, matched := matchOffset(win, term)
		if !matched {
			continue
		}
		results = append(results, s.windowResults(win, offset)...)
		if s.opts.MaxResults > 0 && len(results) >= s.opts.MaxResults {
			return results[:s.opts.MaxResults]
		}
	}
	return results
}

// stripTrigger removes the leading trigger keyword. A bare keyword without a
// trailing space does not trigger, matching the original behavior.
func (s *Searcher) stripTrigger(query string) (string, bool) {
	lowered := strings.ToLower(query)
	for _, keyword := range s.opts.Keywords {
		prefix := strings.ToLower(keyword) + " "
		if strings.HasPrefix(lowered, prefix) {
			return strings.TrimSpace(lowered[len(prefix):]), true
		}
	}
	return "", false
}

// matchOffset finds the term inside the lowercase title, then the lowercase
// WM class. The offset feeds result highlighting in the launcher.
func matchOffset(win shellext.Window, term string) (int, bool) {
	title := strings.ToLower(win.DisplayTitle())
	if off := strings.Index(title, term); off >= 0 {
		return off, true
	}
	class := strings.ToLower(win.DisplayClass())
	if off := strings.Index(class, term); off >= 0 {
		return off, true
	}
	return 0, false
}

func (s *Searcher) windowResults(win shellext.Window, offset int) []Result {
	title := win.DisplayTitle()
	class := win.DisplayClass()

	results := []Result{
		{
			ID:          FormatResultID(ActionActivate, win.ID),
			Title:       title,
			Description: fmt.Sprintf("Activate | Class: %s", class),
			Icon:        class,
			Score:       scoreActivate,
			Offset:      offset,
		},
		{
			ID:          FormatResultID(ActionClose, win.ID),
			Title:       fmt.Sprintf("Close: %s", title),
			Description: fmt.Sprintf("Close Window | Class: %s", class),
			Icon:        iconClose,
			Score:       scoreClose,
			Offset:      offset,
		},
	}

	if win.IsMaximized() {
		results = append(results, Result{
			ID:          FormatResultID(ActionUnmaximize, win.ID),
			Title:       fmt.Sprintf("Unmaximize: %s", title),
			Description: fmt.Sprintf("Unmaximize Window | Class: %s", class),
			Icon:        iconUnmaximize,
			Score:       scoreMaximize,
			Offset:      offset,
		})
	} else {
		results = append(results, Result{
			ID:          FormatResultID(ActionMaximize, win.ID),
			Title:       fmt.Sprintf("Maximize: %s", title),
			Description: fmt.Sprintf("Maximize Window | Class: %s", class),
			Icon:        iconMaximize,
			Score:       scoreMaximize,
			Offset:      offset,
		})
	}

	if s.opts.IncludeMinimize && win.CanMinimize {
		results = append(results, Result{
			ID:          FormatResultID(ActionMinimize, win.ID),
			Title:       fmt.Sprintf("Minimize: %s", title),
			Description: fmt.Sprintf("Minimize Window | Class: %s", class),
			Icon:        iconMinimize,
			Score:       scoreMinimize,
			Offset:      offset,
		})
	}

	return results
}
