package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/tally/internal/auth"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views that act for a signed-in user.
type CommonModel struct {
	Session *auth.Session
}

func (c CommonModel) OwnerID() string {
	if c.Session == nil {
		return ""
	}

	return c.Session.UserID
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// SignedInMsg is emitted by the login screen once a session exists.
type SignedInMsg struct {
	Session *auth.Session
}
