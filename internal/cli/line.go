// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// line.go - Line-mode REPL.
//
// Command: line
// Short:   Chat in a plain prompt instead of the full-screen interface
//
// Examples:
//   webchat line                      Open the first conversation
//   webchat line -c general           Open a specific conversation
//   echo "hello" | webchat -c general Send one message and exit
//
// Type /help at the prompt for the interactive commands.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/webchat-tui/internal/config"
	"github.com/jeranaias/webchat-tui/internal/session"
)

func newLineCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "line",
		Short: "Chat in a plain prompt instead of the full-screen interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of input. It returns io.EOF at end of input.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// lineEditor provides history and line editing on a terminal.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	e := &lineEditor{line: line, historyFile: filepath.Join(dir, "line_history")}
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// Prompt reads a line and records it in the history.
func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (e *lineEditor) Close() {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// scanReader reads lines from a pipe.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(r)}
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// =============================================================================
// REPL
// =============================================================================

func runLine(ctx context.Context, opts *globalOptions, in io.Reader, out io.Writer) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.seedIfEmpty(ctx); err != nil {
		return err
	}

	mgr, err := a.newManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	var reader lineReader
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		ed := newLineEditor()
		defer ed.Close()
		reader = ed
		fmt.Fprintf(out, "%s %s\n", RenderConditional(TitleStyle, "webchat "+Version), "Type /help for commands.")
	} else {
		reader = newScanReader(in)
	}

	return serveLine(ctx, mgr, reader, out, lineOptions{
		Highlight:           ColorsEnabled(),
		DefaultConversation: a.cfg.Chat.DefaultConversation,
	})
}

// serveLine runs the headless program and feeds it lines from reader until
// /quit or end of input.
func serveLine(ctx context.Context, mgr *session.Manager, reader lineReader, out io.Writer, opts lineOptions) error {
	model := newLineModel(mgr, out, opts)
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errc <- err
	}()

	select {
	case <-model.Ready():
	case err := <-errc:
		return programError(ctx, err)
	}

	prompt := RenderConditional(PromptStyle, "> ")
	for {
		text, err := reader.Prompt(prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				p.Kill()
				<-errc
				return err
			}
			text = "/quit"
		}

		done := make(chan bool, 1)
		p.Send(lineInput{text: text, done: done})

		var stop bool
		select {
		case stop = <-done:
		case err := <-errc:
			return programError(ctx, err)
		}
		if stop {
			break
		}
	}

	return programError(ctx, <-errc)
}

// programError drops the error of a program stopped by cancellation.
func programError(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("line mode: %w", err)
}
