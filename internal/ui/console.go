// Package ui provides the operator-facing console: leveled, styled output
// mirrored to a per-run log file, and confirmation prompts.
package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Console writes leveled messages to the terminal and mirrors every line,
// uncolored, into the run's log file. Command output can be teed into the
// same file through Writer.
type Console struct {
	out     io.Writer
	file    io.Writer
	color   bool
	logPath string
}

// New creates a Console logging to a timestamped file under logDir. The
// prefix distinguishes run kinds in the log directory (query, dryrun,
// upgrade). Log files rotate and compress so interrupted upgrades cannot
// fill the log partition.
func New(logDir, prefix string) (*Console, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	ts := time.Now().Format("20060102-150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("opnsense-%s-%s.log", prefix, ts))
	file := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    20, // MB
		MaxBackups: 3,
		Compress:   true,
	}
	return &Console{
		out:     os.Stdout,
		file:    file,
		color:   useColor(),
		logPath: logPath,
	}, nil
}

// NewWithWriters creates a Console over explicit writers, used by tests.
func NewWithWriters(out, file io.Writer) *Console {
	return &Console{out: out, file: file, color: false}
}

func useColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// LogPath returns the path of the run's log file.
func (c *Console) LogPath() string {
	return c.logPath
}

// Writer returns a writer that tees raw output (typically from streamed
// commands) to both the terminal and the log file.
func (c *Console) Writer() io.Writer {
	if c.file == nil {
		return c.out
	}
	return io.MultiWriter(c.out, c.file)
}

// Infof logs an informational message.
func (c *Console) Infof(format string, args ...any) {
	c.write(infoStyle, infoMark, fmt.Sprintf(format, args...))
}

// Successf logs a success message.
func (c *Console) Successf(format string, args ...any) {
	c.write(successStyle, successMark, fmt.Sprintf(format, args...))
}

// Warnf logs a warning.
func (c *Console) Warnf(format string, args ...any) {
	c.write(warningStyle, warningMark, fmt.Sprintf(format, args...))
}

// Errorf logs an error message.
func (c *Console) Errorf(format string, args ...any) {
	c.write(errorStyle, errorMark, fmt.Sprintf(format, args...))
}

// Headerf logs a section header framed by bars.
func (c *Console) Headerf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if c.color {
		fmt.Fprintf(c.out, "\n%s\n%s\n%s\n\n",
			headerStyle.Render(headerBar),
			headerStyle.Render("  "+msg),
			headerStyle.Render(headerBar))
	} else {
		fmt.Fprintf(c.out, "\n%s\n  %s\n%s\n\n", headerBar, msg, headerBar)
	}
	c.mirror(fmt.Sprintf("\n%s\n  %s\n%s\n\n", headerBar, msg, headerBar))
}

func (c *Console) write(style lipgloss.Style, mark, msg string) {
	if c.color {
		fmt.Fprintf(c.out, "%s%s\n", style.Render(mark), msg)
	} else {
		fmt.Fprintf(c.out, "%s%s\n", mark, msg)
	}
	c.mirror(mark + msg + "\n")
}

// Log appends raw text to the log file only, without echoing it to the
// terminal. Used for captured output of non-streamed commands.
func (c *Console) Log(text string) {
	c.mirror(text)
}

// mirror appends plain text to the log file. Log failures never interrupt
// the run.
func (c *Console) mirror(line string) {
	if c.file == nil {
		return
	}
	_, _ = io.WriteString(c.file, line)
}
