package tui

import (
	"vibecheck/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

// ObservableSession は、状態変化を購読できるセッションです
type ObservableSession interface {
	SessionController
	Subscribe(fn func(domain.Session)) func()
}

// Run は、端末クライアントを起動し、終了するまでブロックします
func Run(session ObservableSession, maxPromptLength int, saveDir string, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(NewModel(session, maxPromptLength, saveDir), opts...)

	unsubscribe := session.Subscribe(func(state domain.Session) {
		program.Send(StateMsg(state))
	})
	defer unsubscribe()

	_, err := program.Run()
	return err
}
