// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prompt reads input interactively from the terminal using liner.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

var (
	// ErrAborted is returned when the user aborts a prompt with Ctrl+C.
	ErrAborted = errors.New("prompt aborted")
	// ErrEmpty is returned when a required answer is blank.
	ErrEmpty = errors.New("no value entered")
)

// LineReader is the part of a liner.State used here.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// NewLineReader returns the reader used for prompts. Tests replace it.
var NewLineReader = func() LineReader {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	return l
}

// Line asks for one non-blank value.
func Line(label string) (string, error) {
	line := NewLineReader()

	defer func() {
		_ = line.Close()
	}()

	input, err := line.Prompt(label)
	if err != nil {
		return "", promptError(err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmpty
	}

	return input, nil
}

// REPL reads expressions until the user types quit or exit, aborts, or input ends.
// Each expression is passed to eval and its value, or its error, is written to w.
func REPL(w io.Writer, label string, eval func(string) (string, error)) error {
	line := NewLineReader()

	defer func() {
		_ = line.Close()
	}()

	fmt.Fprintln(w, "Entering console, type `quit` or `exit` or press Ctrl+C to quit.") //nolint:errcheck

	for {
		input, err := line.Prompt(label)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return promptError(err)
		}

		input = strings.TrimSpace(input)

		switch input {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		line.AppendHistory(input)

		out, err := eval(input)
		if err != nil {
			out = err.Error()
		}

		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
}

func promptError(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrAborted
	}

	return err
}
