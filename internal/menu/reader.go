package menu

import (
	"errors"
	"fmt"

	"github.com/chzyer/readline"
)

// ErrInterrupt is returned by a LineReader when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineReader reads one line of input after showing prompt.
// It returns io.EOF at end of input and ErrInterrupt on Ctrl-C.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// ReadlineReader is a LineReader backed by a terminal line editor.
type ReadlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader creates a terminal LineReader.
func NewReadlineReader() (*ReadlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &ReadlineReader{rl: rl}, nil
}

// ReadLine reads a line. Surrounding spaces are kept so a lone space can
// toggle a selection.
func (r *ReadlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", ErrInterrupt
	}
	return line, err
}

// Close restores the terminal.
func (r *ReadlineReader) Close() error {
	return r.rl.Close()
}
