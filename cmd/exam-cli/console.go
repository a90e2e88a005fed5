package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// console is the line-oriented terminal the exam runs in. On a TTY it uses
// a raw-mode x/term Terminal, so timer messages printed from another
// goroutine do not garble the line being typed. Otherwise it reads plain
// lines from stdin.
type console struct {
	t       *term.Terminal
	in      *bufio.Reader
	out     io.Writer
	mu      sync.Mutex
	restore func()
}

func openConsole() (*console, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return &console{
			in:      bufio.NewReader(os.Stdin),
			out:     os.Stdout,
			restore: func() {},
		}, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	t := term.NewTerminal(rw, "")
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}
	return &console{
		t:       t,
		out:     t,
		restore: func() { _ = term.Restore(fd, oldState) },
	}, nil
}

// Prompt shows prompt and returns the trimmed line typed.
func (c *console) Prompt(prompt string) (string, error) {
	if c.t != nil {
		c.t.SetPrompt(prompt)
		line, err := c.t.ReadLine()
		return strings.TrimSpace(line), err
	}

	c.Printf("%s", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Printf writes to the screen. Safe for concurrent use.
func (c *console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) Close() {
	c.restore()
}
