package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel は、LOG_LEVELの値をslog.Levelに変換します
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("不正なLOG_LEVELです: %q", s)
	}
}

// NewLogger は、指定されたレベルと出力先でテキスト形式のロガーを作成します
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	lv, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}

// Discard は、何も出力しないロガーを返します
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
