package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"

	"github.com/mindbridge/counsel/backend/internal/config"
)

// AlertKey marks records that must also reach the on-call telegram chat.
const AlertKey = "telegram"

// Preinit installs a console logger usable before configuration is loaded.
func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

// Init routes records to the console and, when configured, forwards errors
// and alert-tagged records to telegram.
func Init(cfg config.LogConfig) {
	level := parseLevel(cfg.Level)

	router := slogmulti.Router().Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))

	if cfg.TelegramToken != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.TelegramToken,
				Username:  cfg.TelegramChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			IsAlert,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))
}

// IsAlert selects error records and records carrying AlertKey=true.
func IsAlert(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	alert := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == AlertKey {
			alert = attr.Value.Kind() == slog.KindBool && attr.Value.Bool()
			return false
		}
		return true
	})
	return alert
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
