// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/formprobe/pkg/config"
	"github.com/umputun/formprobe/pkg/status"
)

// Logger writes timestamped output to both file and stdout.
// the stdout color follows the current stage of the attached StageHolder.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	stdout    io.Writer
	startTime time.Time
	colors    *Colors
	holder    *status.StageHolder
}

// Config holds logger configuration.
type Config struct {
	Dir      string // directory for the progress file, empty for current dir
	BaseURL  string // application under test
	Viewport string // mobile or desktop, used to derive progress filename
	NoColor  bool   // disable color output (sets color.NoColor globally)
}

// NewLogger creates a logger writing to both a progress file and stdout.
// holder may be nil, in which case every line uses the setup stage color.
func NewLogger(cfg Config, colors *Colors, holder *status.StageHolder) (*Logger, error) {
	// set global color setting
	if cfg.NoColor {
		color.NoColor = true
	}

	progressPath := filepath.Join(cfg.Dir, progressFilename(cfg.Viewport))

	if dir := filepath.Dir(progressPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}

	f, err := os.Create(progressPath) //nolint:gosec // path derived from viewport name
	if err != nil {
		return nil, fmt.Errorf("create progress file: %w", err)
	}

	if colors == nil {
		colors = NewColors(config.ColorConfig{})
	}

	l := &Logger{
		file:      f,
		stdout:    os.Stdout,
		startTime: time.Now(),
		colors:    colors,
		holder:    holder,
	}

	viewport := cfg.Viewport
	if viewport == "" {
		viewport = "mobile"
	}
	l.writeFile("# Formprobe Progress Log\n")
	l.writeFile("URL: %s\n", cfg.BaseURL)
	l.writeFile("Viewport: %s\n", viewport)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the progress file path.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()

	// write to file without color
	l.writeFile("[%s] %s\n", timestamp, msg)

	// write to stdout with color
	tsStr := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	msgStr := l.stageColor().Sprint(msg)
	l.writeStdout("%s %s\n", tsStr, msgStr)
}

// PrintRaw writes without timestamp.
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	// try COLUMNS env var first
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth)
		}
	}

	// try terminal syscall
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20 // default 80 columns minus timestamp
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := len(word)
		switch {
		case i == 0:
			result.WriteString(word)
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wordLen
		default:
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wordLen
		}
	}
	return result.String()
}

// PrintAligned writes text with timestamp, handling multi-line content properly.
// timestamps the first line, indents continuation lines.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "
	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) <= width {
			lines = append(lines, line)
			continue
		}
		for wrapped := range strings.SplitSeq(wrapText(line, width), "\n") {
			lines = append(lines, wrapped)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	stageColor := l.stageColor()
	tsPrefix := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, stageColor.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, stageColor.Sprint(line))
		}
	}
}

// Error writes an error message in the error color.
func (l *Logger) Error(format string, args ...any) {
	l.tagged("ERROR", l.colors.Error(), format, args...)
}

// Warn writes a warning message in the warn color.
func (l *Logger) Warn(format string, args ...any) {
	l.tagged("WARN", l.colors.Warn(), format, args...)
}

func (l *Logger) tagged(tag string, c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[%s] %s: %s\n", timestamp, tag, msg)
	tsStr := l.colors.Timestamp().Sprintf("[%s]", timestamp)
	l.writeStdout("%s %s\n", tsStr, c.Sprintf("%s: %s", tag, msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the progress file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	return nil
}

func (l *Logger) stageColor() *color.Color {
	return l.colors.ForStage(l.holder.Get())
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

// progressFilename returns progress file name for the viewport.
func progressFilename(viewport string) string {
	if viewport == "" || viewport == "mobile" {
		return "progress-formprobe.txt"
	}
	return fmt.Sprintf("progress-formprobe-%s.txt", viewport)
}
