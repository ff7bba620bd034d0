package live

import "github.com/MrSnakeDoc/marks/internal/domain"

// Frame types pushed to the browser.
const (
	FrameList  = "list"
	FrameForm  = "form"
	FrameError = "error"
)

// Client operations.
const (
	OpAdd    = "add"
	OpDelete = "delete"
)

// ListFrame carries the full ordered sequence. EventID names the change
// event that produced it, empty for local changes.
type ListFrame struct {
	Type      string            `json:"type"`
	EventID   string            `json:"event_id,omitempty"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type FormFrame struct {
	Type       string `json:"type"`
	Submitting bool   `json:"submitting"`
	Title      string `json:"title"`
	URL        string `json:"url"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Op is a message sent by the browser.
type Op struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Sink delivers frames to the browser. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(frame any) error
}

func newListFrame(eventID string, items []domain.Bookmark) ListFrame {
	if items == nil {
		items = []domain.Bookmark{}
	}
	return ListFrame{Type: FrameList, EventID: eventID, Bookmarks: items}
}

func newFormFrame(st FormState) FormFrame {
	return FormFrame{Type: FrameForm, Submitting: st.Submitting, Title: st.Title, URL: st.URL}
}

func newErrorFrame(msg string) ErrorFrame {
	return ErrorFrame{Type: FrameError, Message: msg}
}
