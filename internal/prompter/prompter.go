// Package prompter collects interactive input on the terminal. Commands
// depend on the interface so tests can script answers.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user questions on the terminal.
type Prompter interface {
	// Select asks the user to pick one of options, returning its index.
	Select(prompt string, options []string) (int, error)
	// Input asks for a line of free-form text.
	Input(prompt, defaultValue string) (string, error)
	// Password asks for a secret without echoing it.
	Password(prompt string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(prompt string, defaultValue bool) (bool, error)
}

// New returns a Prompter reading from in and writing prompts to out.
func New(in io.Reader, out io.Writer) Prompter {
	return &terminalPrompter{in: bufio.NewReader(in), rawIn: in, out: out}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type terminalPrompter struct {
	in    *bufio.Reader
	rawIn io.Reader
	out   io.Writer
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *terminalPrompter) Select(prompt string, options []string) (int, error) {
	fmt.Fprintf(p.out, "%s\n", prompt)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(p.out, "Enter a number (1-%d): ", len(options))
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "invalid choice %q\n", line)
	}
}

func (p *terminalPrompter) Input(prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s (%s): ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

func (p *terminalPrompter) Password(prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", prompt)
	if f, ok := p.unwrapFile(); ok {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}
	// Not a terminal; fall back to a plain read.
	return p.readLine()
}

// unwrapFile exposes the raw descriptor when input is a terminal, which
// echo suppression needs.
func (p *terminalPrompter) unwrapFile() (*os.File, bool) {
	if f, ok := p.rawIn.(*os.File); ok && IsTerminal(f) {
		return f, true
	}
	return nil, false
}

func (p *terminalPrompter) Confirm(prompt string, defaultValue bool) (bool, error) {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s (%s): ", prompt, hint)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return defaultValue, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid answer %q", line)
	}
}

// Stub is a scripted Prompter for tests. Each call pops the next queued
// answer of its kind.
type Stub struct {
	SelectAnswers  []int
	InputAnswers   []string
	Passwords      []string
	ConfirmAnswers []bool

	SelectPrompts []string
}

func (s *Stub) Select(prompt string, options []string) (int, error) {
	s.SelectPrompts = append(s.SelectPrompts, prompt)
	if len(s.SelectAnswers) == 0 {
		return 0, fmt.Errorf("unexpected select prompt: %s", prompt)
	}
	answer := s.SelectAnswers[0]
	s.SelectAnswers = s.SelectAnswers[1:]
	return answer, nil
}

func (s *Stub) Input(prompt, defaultValue string) (string, error) {
	if len(s.InputAnswers) == 0 {
		return defaultValue, nil
	}
	answer := s.InputAnswers[0]
	s.InputAnswers = s.InputAnswers[1:]
	return answer, nil
}

func (s *Stub) Password(prompt string) (string, error) {
	if len(s.Passwords) == 0 {
		return "", fmt.Errorf("unexpected password prompt: %s", prompt)
	}
	answer := s.Passwords[0]
	s.Passwords = s.Passwords[1:]
	return answer, nil
}

func (s *Stub) Confirm(prompt string, defaultValue bool) (bool, error) {
	if len(s.ConfirmAnswers) == 0 {
		return defaultValue, nil
	}
	answer := s.ConfirmAnswers[0]
	s.ConfirmAnswers = s.ConfirmAnswers[1:]
	return answer, nil
}
