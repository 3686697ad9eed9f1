package tui

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vibecheck/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3DDC97"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	loaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	captionStyle = lipgloss.NewStyle().Bold(true).Italic(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C2E7"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5484D"))
	buttonStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2).Background(lipgloss.Color("#3DDC97")).Foreground(lipgloss.Color("#0B1021"))
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3DDC97"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3DDC97")).Padding(1, 2)
	errorCard    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#E5484D")).Padding(1, 2)
)

const appTitle = "🦌 Nordic Vibe Check"

// maxImageDownloadBytes は、URLから取得する画像の最大サイズです
const maxImageDownloadBytes = 20 << 20

// View は、現在の状態を描画します
func (m Model) View() string {
	var body string
	switch m.state.Status {
	case domain.StatusThinking, domain.StatusGeneratingImage:
		body = m.loadingView()
	case domain.StatusComplete:
		body = m.cardView()
	case domain.StatusError:
		body = m.errorView()
	default:
		body = m.idleView()
	}

	parts := []string{titleStyle.Render(appTitle), faintStyle.Render("Oku the Reindeer · Ruka, Finland"), "", body}
	if m.notice != "" {
		parts = append(parts, "", faintStyle.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) idleView() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(faintStyle.Render("Need inspo?"))
	b.WriteString("\n")
	for i, prompt := range domain.SuggestedPrompts() {
		if i == m.selected {
			b.WriteString(selectStyle.Render("› " + prompt))
		} else {
			b.WriteString(faintStyle.Render("  " + prompt))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("enter = vibe check • tab/↑↓ = ideas • esc = quit"))
	return b.String()
}

func (m Model) loadingView() string {
	loader := fmt.Sprintf("%s %s", m.spinner.View(), loaderStyle.Render(loaderText(m.state.Status)))
	prompt := faintStyle.Render("“" + m.state.Prompt + "”")
	return lipgloss.JoinVertical(lipgloss.Left, loader, "", prompt, "", faintStyle.Render("esc = cancel"))
}

func (m Model) cardView() string {
	resp := m.state.Response
	if resp == nil {
		return m.idleView()
	}

	lines := []string{
		badgeStyle.Render("Verified Oku ✨") + faintStyle.Render(" · 📍 Ruka, Finland"),
		"",
		captionStyle.Width(m.width - 6).Render("“" + resp.Text + "”"),
		"",
	}
	if resp.HasTags() {
		lines = append(lines, tagStyle.Render(strings.Join(resp.Tags, " ")), "")
	}
	if resp.HasImage() {
		lines = append(lines, "📸 "+describeImage(resp.ImageURL))
	} else {
		lines = append(lines, faintStyle.Render("📸 No Image Generated"))
	}

	card := cardStyle.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	help := "enter = go again • q = quit"
	if resp.HasImage() {
		help = "enter = go again • s = save image • q = quit"
	}
	return lipgloss.JoinVertical(lipgloss.Left, card, "", buttonStyle.Render("GO AGAIN"), faintStyle.Render(help))
}

func (m Model) errorView() string {
	message := m.state.ErrorMessage
	if message == "" {
		message = domain.UserFacingErrorMessage
	}
	card := errorCard.Width(m.width).Render(errorStyle.Render("❄️ " + message))
	return lipgloss.JoinVertical(lipgloss.Left, card, "", buttonStyle.Render("TRY AGAIN"), faintStyle.Render("enter = try again • q = quit"))
}

// loaderText は、生成中のステータスに対応するローダーの文言を返します
func loaderText(status domain.VibeStatus) string {
	if status == domain.StatusGeneratingImage {
		return "Rendering 4K Snow..."
	}
	return "Cooking up responses..."
}

// describeImage は、画像参照を端末に表示できる短い説明に変換します
func describeImage(ref string) string {
	if meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ","); ok && strings.HasPrefix(ref, "data:") {
		mimeType := strings.TrimSuffix(meta, ";base64")
		size := base64.StdEncoding.DecodedLen(len(payload))
		return fmt.Sprintf("%s snapshot ready (%d KB)", mimeType, (size+1023)/1024)
	}
	return ref
}

// decodeImage は、data URIまたはURLから画像データを取得します
func decodeImage(ref string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(ref, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("unsupported image data")
		}
		return base64.StdEncoding.DecodeString(payload)
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return nil, errors.New("unsupported image reference")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	return readLimited(resp.Body, maxImageDownloadBytes)
}

// readLimited は、limitバイトを超える場合はエラーを返します
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image is larger than %d MB", limit>>20)
	}
	return data, nil
}
