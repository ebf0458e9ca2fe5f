package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stdout, log.Options{
	ReportTimestamp: true,
})

func Init(level string) {
	if lvl, err := log.ParseLevel(level); err == nil {
		std.SetLevel(lvl)
	}
	std.Info("logger initialized")
}

func kv(fields map[string]any) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func Debug(msg string, fields map[string]any) {
	std.Debug(msg, kv(fields)...)
}

func Info(msg string, fields map[string]any) {
	std.Info(msg, kv(fields)...)
}

func Warn(msg string, fields map[string]any) {
	std.Warn(msg, kv(fields)...)
}

func Error(msg string, fields map[string]any) {
	std.Error(msg, kv(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	std.Fatal(msg, kv(fields)...)
}
