// Derived presentation values: pure functions of the job state, with no
// side effects, recomputed on every render.

package progress

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/aliveriver/ConvertAgent/internal/models"
)

// fileLinkPattern matches the backend's file-link token inside a step
// message: 📄 [label](path).
var fileLinkPattern = regexp.MustCompile(`📄 \[([^\]]+)\]\(([^)]+)\)`)

// StatusBadge maps a lifecycle phase to the badge text the UI shows.
// Priority order: error > complete > processing > idle.
func StatusBadge(p Phase) string {
	switch p {
	case PhaseError:
		return "failed"
	case PhaseComplete:
		return "done"
	case PhaseProcessing:
		return "in progress"
	default:
		return "waiting"
	}
}

// StepDisplay renders a step message as HTML. File-link tokens become
// clickable references resolved against the backend origin, then line
// breaks are converted to <br>. The message is escaped first; the token
// pattern survives escaping, so the rewrite runs on the escaped text.
func StepDisplay(ev models.ProgressEvent, origin string) string {
	out := html.EscapeString(ev.Message)
	out = fileLinkPattern.ReplaceAllStringFunc(out, func(match string) string {
		parts := fileLinkPattern.FindStringSubmatch(match)
		label, path := parts[1], parts[2]
		return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">📄 %s</a>`, ResolveFileURL(origin, path), label)
	})
	return strings.ReplaceAll(out, "\n", "<br>")
}

// ResolveFileURL turns a server-relative file path into an absolute URL
// on the backend origin. Already-absolute URLs pass through unchanged.
func ResolveFileURL(origin, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(origin, "/") + path
}

// StepTimestamp formats an event's epoch timestamp as a localized
// hour:minute:second string.
func StepTimestamp(ev models.ProgressEvent) string {
	sec := int64(ev.Timestamp)
	nsec := int64((ev.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).Local().Format("15:04:05")
}

// StepView is one rendered step as relayed to the browser.
type StepView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	HTML    string `json:"html"`
	Time    string `json:"time"`
}

// SnapshotView is the presentation form of a snapshot.
type SnapshotView struct {
	Status       string     `json:"status"`
	IsProcessing bool       `json:"is_processing"`
	IsComplete   bool       `json:"is_complete"`
	HasError     bool       `json:"has_error"`
	Steps        []StepView `json:"steps"`
}

// View renders the snapshot for the UI, resolving file links against the
// given backend origin.
func (s Snapshot) View(origin string) SnapshotView {
	steps := make([]StepView, len(s.Steps))
	for i, ev := range s.Steps {
		steps[i] = StepView{
			Type:    ev.Type,
			Message: ev.Message,
			HTML:    StepDisplay(ev, origin),
			Time:    StepTimestamp(ev),
		}
	}
	return SnapshotView{
		Status:       s.Status,
		IsProcessing: s.IsProcessing,
		IsComplete:   s.IsComplete,
		HasError:     s.HasError,
		Steps:        steps,
	}
}
