package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeHTTP   LogType = "HTTP"
	TypeDB     LogType = "DB"
	TypeBid    LogType = "BID"
	TypeSweep  LogType = "SWEEP"
	TypePay    LogType = "PAY"
	TypeSystem LogType = "SYS"
	TypeError  LogType = "ERR"
)

var logTypes = map[string]LogType{
	"http":  TypeHTTP,
	"db":    TypeDB,
	"bid":   TypeBid,
	"sweep": TypeSweep,
	"pay":   TypePay,
	"error": TypeError,
}

// CustomHandler writes one coloured line per record:
// [auctionhouse] [15:04:05] [INFO] [BID] message key=value ...
type CustomHandler struct {
	opts   *slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

func NewHandler(out io.Writer, level slog.Leveler) *CustomHandler {
	return &CustomHandler{
		opts: &slog.HandlerOptions{Level: level},
		out:  out,
		mu:   &sync.Mutex{},
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CustomHandler{
		opts:   h.opts,
		out:    h.out,
		mu:     h.mu,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: h.groups,
	}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	return &CustomHandler{
		opts:   h.opts,
		out:    h.out,
		mu:     h.mu,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	logType := TypeSystem
	var b strings.Builder
	collect := func(a slog.Attr) bool {
		if a.Key == "type" {
			if t, ok := logTypes[a.Value.String()]; ok {
				logType = t
			}
			return true
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fmt.Fprintf(&b, " %s%s=%s%v", colorCyan, key, colorWhite, a.Value)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	message := r.Message
	if r.Level >= slog.LevelError {
		if location := errorLocation(); location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s[auctionhouse] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		r.Time.Format("15:04:05"),
		levelColor,
		levelText,
		colorWhite,
		logType,
		message,
		b.String(),
		colorReset,
	)
	return err
}

func errorLocation() string {
	// Handle <- slog.Logger.log <- slog.Error <- caller
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Setup installs the default slog logger. Format "json" writes structured
// JSON for log shippers; anything else uses CustomHandler.
func Setup(level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = NewHandler(os.Stdout, lvl)
	}
	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// LogSystem logs lifecycle events of the process.
func LogSystem(msg string, attrs ...any) {
	slog.Info(msg, append([]any{slog.String("type", "sys")}, attrs...)...)
}

// LogError logs an error with type=error.
func LogError(msg string, err error, attrs ...any) {
	slog.Error(msg, append([]any{slog.String("type", "error"), slog.String("error", err.Error())}, attrs...)...)
}

// Since is a helper for the "took" attribute.
func Since(start time.Time) slog.Attr {
	return slog.Duration("took", time.Since(start))
}
