package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vibecheck/internal/domain"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SessionController は、端末クライアントが操作するセッションです
// *application.VibeSessionServiceがこのインターフェースを満たします
type SessionController interface {
	Submit(text string) error
	Reset()
	State() domain.Session
}

// StateMsg は、セッションの状態変化を通知するメッセージです
type StateMsg domain.Session

// savedMsg は、画像の保存結果を通知するメッセージです
type savedMsg struct {
	path string
	err  error
}

// Model は、端末クライアントのbubbletea モデルです
type Model struct {
	session   SessionController
	input     textinput.Model
	spinner   spinner.Model
	state     domain.Session
	selected  int
	notice    string
	width     int
	saveDir   string
	now       func() time.Time
	writeFile func(name string, data []byte) error
}

// NewModel は新しいModelインスタンスを作成します
// saveDirは画像の保存先ディレクトリです
func NewModel(session SessionController, maxPromptLength int, saveDir string) Model {
	input := textinput.New()
	input.Placeholder = "What's the vibe? e.g. Skiing in Ruka at golden hour"
	input.Prompt = "❯ "
	input.CharLimit = maxPromptLength
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loaderStyle

	return Model{
		session:  session,
		input:    input,
		spinner:  sp,
		state:    session.State(),
		selected: -1,
		width:    72,
		saveDir:  saveDir,
		now:      time.Now,
		writeFile: func(name string, data []byte) error {
			return os.WriteFile(name, data, 0o644)
		},
	}
}

// Init は、カーソルの点滅とスピナーを開始します
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update は、入力と状態変化に応じてモデルを更新します
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-4, 40), 96)
		return m, nil

	case StateMsg:
		m.state = domain.Session(msg)
		if m.state.Status == domain.StatusIdle {
			m.input.Focus()
		} else {
			m.input.Blur()
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.notice = "Could not save the image: " + msg.err.Error()
		} else {
			m.notice = "Saved " + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if m.state.Status == domain.StatusIdle {
			return m, tea.Quit
		}
		m.session.Reset()
		return m, nil
	}

	switch m.state.Status {
	case domain.StatusIdle:
		return m.handleIdleKey(msg)
	case domain.StatusComplete, domain.StatusError:
		return m.handleResultKey(msg)
	}
	return m, nil
}

func (m Model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggestions := domain.SuggestedPrompts()

	switch msg.Type {
	case tea.KeyEnter:
		text := m.input.Value()
		if m.selected >= 0 && strings.TrimSpace(text) == "" {
			text = suggestions[m.selected]
		}
		if err := m.session.Submit(text); err != nil {
			return m, nil
		}
		m.input.Reset()
		m.selected = -1
		m.notice = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.selected = (m.selected + 1) % len(suggestions)
		m.input.SetValue(suggestions[m.selected])
		m.input.CursorEnd()
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		if m.selected <= 0 {
			m.selected = len(suggestions)
		}
		m.selected--
		m.input.SetValue(suggestions[m.selected])
		m.input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "r":
		m.session.Reset()
		m.notice = ""
		return m, nil
	case "s":
		if m.state.Status == domain.StatusComplete && m.state.Response != nil && m.state.Response.HasImage() {
			return m, m.saveImage(m.state.Response.ImageURL)
		}
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// saveImage は、画像をruka-rizz-<ミリ秒>.pngとして保存するコマンドを返します
func (m Model) saveImage(ref string) tea.Cmd {
	name := filepath.Join(m.saveDir, fmt.Sprintf("ruka-rizz-%d.png", m.now().UnixMilli()))
	write := m.writeFile
	return func() tea.Msg {
		data, err := decodeImage(ref)
		if err != nil {
			return savedMsg{err: err}
		}
		if err := write(name, data); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: name}
	}
}
