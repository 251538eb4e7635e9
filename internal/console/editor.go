package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const historySize = 500

// LineReader yields one line of operator input per call. io.EOF ends the
// session.
type LineReader interface {
	GetLine(prompt string) (string, error)
	Close()
}

// LineEditor uses readline when stdin is a terminal and a plain scanner
// otherwise (pipes, editor shells).
type LineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
	out     io.Writer
}

// NewLineEditor picks the interactive or piped mode for stdin. An empty
// historyPath disables history persistence.
func NewLineEditor(historyPath string) *LineEditor {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return NewScannerEditor(os.Stdin, os.Stdout)
	}
	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline unavailable (%v), using basic input\n", err)
		return NewScannerEditor(os.Stdin, os.Stdout)
	}
	return &LineEditor{rl: rl, out: os.Stdout}
}

// NewScannerEditor reads lines from in and writes prompts to out.
func NewScannerEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{scanner: bufio.NewScanner(in), out: out}
}

func (e *LineEditor) GetLine(prompt string) (string, error) {
	if e.rl != nil {
		e.rl.SetPrompt(prompt)
		line, err := e.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return "", io.EOF
			}
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			e.rl.SaveToHistory(trimmed)
		}
		return line, nil
	}

	fmt.Fprint(e.out, prompt)
	if !e.scanner.Scan() {
		if err := e.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return e.scanner.Text(), nil
}

// Output is where results should be printed so they do not clobber the
// prompt.
func (e *LineEditor) Output() io.Writer {
	return e.out
}

func (e *LineEditor) Interactive() bool {
	return e.rl != nil
}

func (e *LineEditor) Close() {
	if e.rl != nil {
		e.rl.Close()
		e.rl = nil
	}
}
