package fyaml

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
)

// String returns the level name in lower case.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelNotice:
		return "notice"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Module identifies the subsystem that produced a diagnostic.
type Module int

const (
	ModUnknown Module = iota
	ModAtom
	ModScan
	ModParse
	ModDoc
	ModBuild
	ModInternal
	ModSystem
)

// String returns the module name in lower case.
func (m Module) String() string {
	switch m {
	case ModAtom:
		return "atom"
	case ModScan:
		return "scan"
	case ModParse:
		return "parse"
	case ModDoc:
		return "doc"
	case ModBuild:
		return "build"
	case ModInternal:
		return "internal"
	case ModSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Diagnostic is one report from the processor: a severity, the subsystem
// that produced it, the producer's own source location, the position in
// the parsed input, and the message.
type Diagnostic struct {
	Level  Level
	Module Module
	Mark   Mark
	Msg    string

	// Producer location, captured at the point the diagnostic was made.
	SourceFile string
	SourceLine int
	SourceFunc string
}

func newDiagnostic(lvl Level, mod Module, mark Mark, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Level:  lvl,
		Module: mod,
		Mark:   mark,
		Msg:    fmt.Sprintf(format, args...),
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		d.SourceFile = file
		d.SourceLine = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			d.SourceFunc = fn.Name()
		}
	}
	return d
}

// Error is a parse-side failure carrying its diagnostic. It is the error
// type returned by the scanner, parser and document builder.
type Error struct {
	Diag Diagnostic
}

// Error renders as "line:col: [module] message".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: [%s] %s", e.Diag.Mark, e.Diag.Module, e.Diag.Msg)
}

// RenderOptions controls diagnostic rendering.
type RenderOptions struct {
	Colorize bool
	TabSize  int // Tab width used to align the column marker. 0 means 1.
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
)

// Render writes the diagnostic followed by the offending source line and a
// "^~~~" marker aligned under the exact column. src is the full input the
// mark refers to; pass nil to skip the context lines.
func (e *Error) Render(w io.Writer, src []byte, opts RenderOptions) error {
	head := fmt.Sprintf("%s: %s: [%s] %s", e.Diag.Mark, e.Diag.Level, e.Diag.Module, e.Diag.Msg)
	if opts.Colorize {
		head = ansiBold + ansiRed + head + ansiReset
	}
	if _, err := fmt.Fprintln(w, head); err != nil {
		return err
	}
	if src == nil {
		return nil
	}

	line := extractLine(src, e.Diag.Mark.Line)
	if line == "" && e.Diag.Mark.Line > 1 {
		return nil
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	// Align the marker: every tab before the column expands to the same
	// width it had when the reader counted columns.
	tabsize := opts.TabSize
	var pad strings.Builder
	col := 0
	for _, r := range line {
		if col >= e.Diag.Mark.Column {
			break
		}
		if r == '\t' && tabsize > 0 {
			n := tabsize - col%tabsize
			for i := 0; i < n; i++ {
				pad.WriteByte(' ')
			}
			col += n
		} else {
			pad.WriteByte(' ')
			col++
		}
	}
	marker := "^~~~"
	if opts.Colorize {
		marker = ansiRed + marker + ansiReset
	}
	_, err := fmt.Fprintf(w, "%s%s\n", pad.String(), marker)
	return err
}

// extractLine returns the n-th (1-based) line of src without its break.
func extractLine(src []byte, n int) string {
	line := 1
	start := 0
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			if line == n {
				end := i
				if end > start && src[end-1] == '\r' {
					end--
				}
				return string(src[start:end])
			}
			line++
			start = i + 1
		}
	}
	if line == n {
		return string(src[start:])
	}
	return ""
}

// logDiag forwards a diagnostic to a go-kit logger, if one is configured.
func logDiag(logger log.Logger, d Diagnostic) {
	if logger == nil {
		return
	}
	var l log.Logger
	switch d.Level {
	case LevelDebug:
		l = level.Debug(logger)
	case LevelInfo, LevelNotice:
		l = level.Info(logger)
	case LevelWarning:
		l = level.Warn(logger)
	default:
		l = level.Error(logger)
	}
	_ = l.Log(
		"module", d.Module.String(),
		"line", d.Mark.Line,
		"col", d.Mark.Column+1,
		"msg", d.Msg,
	)
}
