package logger

import (
	"CraveQuest/internal/api/config"
	"io"
	log "log/slog"
	"os"
	"strings"
)

// InitLogger 初始化全局 slog，JSON 输出到 stdout 并自动附带 trace_id
func InitLogger(cfg config.LogConfig) {
	log.SetDefault(NewLogger(os.Stdout, cfg))
}

func NewLogger(w io.Writer, cfg config.LogConfig) *log.Logger {
	h := log.NewJSONHandler(w, &log.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return log.New(&ContextHandler{h})
}

// ParseLevel 未识别的级别按 info 处理
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
