package discord

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"vibecheck/internal/domain"

	"github.com/bwmarrin/discordgo"
)

const (
	colorAurora  = 0x3DDC97
	colorLoading = 0x5B8DEF
	colorError   = 0xE5484D

	// buttonLabelLimit は、Discordのボタンラベルの最大文字数です
	buttonLabelLimit = 80
)

// 画面に表示する文言
const (
	loaderThinking        = "Cooking up responses..."
	loaderGeneratingImage = "Rendering 4K Snow..."
	idleMessage           = "Ready for a new vibe check. Try `/vibe` or grab some inspo with `/vibe-ideas`."
	badgeText             = "Verified Oku ✨"
	locationText          = "Ruka, Finland"
	noImageText           = "No Image Generated"
	goAgainLabel          = "GO AGAIN"
	tryAgainLabel         = "TRY AGAIN"
)

// View は、1回のインタラクション応答として送信する内容です
type View struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      []*discordgo.File
}

// WebhookEdit は、Viewをインタラクション応答の編集リクエストに変換します
func (v View) WebhookEdit() *discordgo.WebhookEdit {
	content := v.Content
	embeds := v.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	components := v.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
		Files:      v.Files,
	}
}

// LoaderText は、生成中のステータスに対応するローダーの文言を返します
func LoaderText(status domain.VibeStatus) string {
	switch status {
	case domain.StatusThinking:
		return loaderThinking
	case domain.StatusGeneratingImage:
		return loaderGeneratingImage
	default:
		return ""
	}
}

// ImageFileName は、ダウンロード用の画像ファイル名を返します
func ImageFileName(now time.Time) string {
	return fmt.Sprintf("ruka-rizz-%d.png", now.UnixMilli())
}

// RenderSession は、Sessionの状態をDiscordのメッセージに変換します
// ownerIDはリセットボタンを押せるユーザーです
func RenderSession(state domain.Session, ownerID string, now time.Time) View {
	switch state.Status {
	case domain.StatusThinking, domain.StatusGeneratingImage:
		return renderLoading(state)
	case domain.StatusComplete:
		if state.Response != nil {
			return renderCard(state, ownerID, now)
		}
	case domain.StatusError:
		return renderError(state, ownerID)
	}
	return View{Content: idleMessage}
}

func renderLoading(state domain.Session) View {
	embed := &discordgo.MessageEmbed{
		Title:       "🦌 " + LoaderText(state.Status),
		Description: quote(state.Prompt),
		Color:       colorLoading,
		Footer:      &discordgo.MessageEmbedFooter{Text: locationText},
	}
	return View{Embeds: []*discordgo.MessageEmbed{embed}}
}

func renderCard(state domain.Session, ownerID string, now time.Time) View {
	resp := state.Response
	embed := &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: "Oku · " + badgeText},
		Description: fmt.Sprintf("**“%s”**", resp.Text),
		Color:       colorAurora,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📍 Location", Value: locationText, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Prompt: " + truncateRunes(state.Prompt, 200)},
	}
	if resp.HasTags() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Tags", Value: strings.Join(resp.Tags, " "), Inline: true})
	}

	view := View{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: resetButtonRow(goAgainLabel, discordgo.SuccessButton, ownerID, state.GenerationID),
	}

	image, err := renderImage(resp.ImageURL, now)
	switch {
	case err != nil || image.url == "":
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "📸 Snapshot", Value: noImageText, Inline: false})
	case image.file != nil:
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + image.file.Name}
		view.Files = []*discordgo.File{image.file}
	default:
		embed.Image = &discordgo.MessageEmbedImage{URL: image.url}
	}
	return view
}

func renderError(state domain.Session, ownerID string) View {
	message := state.ErrorMessage
	if message == "" {
		message = domain.UserFacingErrorMessage
	}
	embed := &discordgo.MessageEmbed{
		Title:       "❄️ Signal lost",
		Description: message,
		Color:       colorError,
	}
	return View{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: resetButtonRow(tryAgainLabel, discordgo.DangerButton, ownerID, state.GenerationID),
	}
}

// IdeasView は、おすすめのプロンプトをボタンとして並べたメッセージを返します
func IdeasView() View {
	var buttons []discordgo.MessageComponent
	for i, prompt := range domain.SuggestedPrompts() {
		buttons = append(buttons, discordgo.Button{
			Label:    truncateRunes(prompt, buttonLabelLimit),
			Style:    discordgo.SecondaryButton,
			CustomID: ideaCustomID(i),
		})
	}
	return View{
		Content:    "Need inspo? Tap a vibe and Oku will take it from there:",
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}},
	}
}

func resetButtonRow(label string, style discordgo.ButtonStyle, ownerID string, generationID uint64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: label, Style: style, CustomID: resetCustomID(ownerID, generationID)},
		}},
	}
}

type renderedImage struct {
	url  string
	file *discordgo.File
}

// renderImage は、画像参照をURLまたは添付ファイルに変換します
func renderImage(ref string, now time.Time) (renderedImage, error) {
	if ref == "" {
		return renderedImage{}, nil
	}

	if strings.HasPrefix(ref, "data:") {
		mimeType, data, err := ParseDataURI(ref)
		if err != nil {
			return renderedImage{}, err
		}
		name := ImageFileName(now)
		return renderedImage{
			url:  "attachment://" + name,
			file: &discordgo.File{Name: name, ContentType: mimeType, Reader: bytes.NewReader(data)},
		}, nil
	}

	parsed, err := url.Parse(ref)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return renderedImage{}, fmt.Errorf("表示できない画像参照です: %.32q", ref)
	}
	return renderedImage{url: ref}, nil
}

// ParseDataURI は、base64形式のdata URIからMIMEタイプとデータを取り出します
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("data URIではありません")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URIにデータ部がありません")
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("base64以外のdata URIには対応していません")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URIのデコードに失敗: %w", err)
	}
	return mimeType, data, nil
}

func quote(s string) string {
	if s == "" {
		return ""
	}
	return "> " + truncateRunes(s, 300)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

func resetCustomID(ownerID string, generationID uint64) string {
	return customIDReset + ":" + ownerID + ":" + strconv.FormatUint(generationID, 10)
}

func ideaCustomID(index int) string {
	return customIDIdea + ":" + strconv.Itoa(index)
}
