package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tally/internal/auth"
)

const (
	modeSignIn = "signin"
	modeSignUp = "signup"
)

type loginFields struct {
	Mode     string
	Email    string
	Password string
}

type LoginModel struct {
	authService *auth.Service

	form    *huh.Form
	fields  *loginFields
	loading bool
	status  string
}

func NewLoginModel(authSvc *auth.Service) LoginModel {
	m := LoginModel{authService: authSvc}
	m.fields = &loginFields{Mode: modeSignIn}
	m.form = m.newForm()

	return m
}

func (m LoginModel) Title() string     { return "Sign In" }
func (m LoginModel) ShortHelp() string { return "Tab: next field | Enter: submit | Ctrl+C: quit" }

func (m LoginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("mode").
				Title("Account").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create account", modeSignUp),
				).
				Value(&m.fields.Mode),

			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.fields.Email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return fmt.Errorf("enter an email address")
					}
					return nil
				}),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.Password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.loading = false

		if res.err != nil {
			m.status = loginErrorText(res.err)
			m.fields.Password = ""
			m.form = m.newForm()

			return m, m.form.Init()
		}

		session := res.session

		return m, func() tea.Msg { return SignedInMsg{Session: session} }
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true
	m.status = ""

	return m, m.submitCmd()
}

func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Tally") + "\n\n")

	if m.loading {
		b.WriteString("Signing in...")
	} else {
		b.WriteString(m.form.View())
	}

	if m.status != "" {
		b.WriteString("\n\n" + errorStyle(m.status))
	}

	return lipgloss.NewStyle().Padding(2).Render(b.String())
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Wrong email or password."
	case errors.Is(err, auth.ErrEmailTaken):
		return "An account with this email already exists."
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return err.Error()
	}

	return fmt.Sprintf("Error: %v", err)
}

// Messages

type loginResultMsg struct {
	session *auth.Session
	err     error
}

func (m LoginModel) submitCmd() tea.Cmd {
	fields := *m.fields
	svc := m.authService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		signIn := svc.SignIn
		if fields.Mode == modeSignUp {
			signIn = svc.SignUp
		}

		session, err := signIn(ctx, fields.Email, fields.Password)

		return loginResultMsg{session: session, err: err}
	}
}
