// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Interactive prompts for destructive actions and config init.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
)

// Prompter reads one line of input after showing prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linePrompter is a Prompter backed by liner for line editing.
type linePrompter struct {
	state *liner.State
}

// newPrompter is replaced in tests.
var newPrompter = func() Prompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &linePrompter{state: state}
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return line, err
}

func (p *linePrompter) Close() error {
	return p.state.Close()
}

// canPrompt reports whether interactive prompts are possible; replaced in
// tests.
var canPrompt = CanPrompt

// RequireConfirmation asks before a destructive action.
//
// Usage:
//
//	confirmed, err := RequireConfirmation(p.BoolFlag("yes"), "delete all stored runs", args.JSON)
//	if err != nil {
//	    return err  // JSON mode or no terminal, without --yes
//	}
//	if !confirmed {
//	    return nil
//	}
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if jsonMode {
		return false, &ValidationError{Field: "yes", Reason: "confirmation required in JSON mode", Example: "--yes"}
	}
	if !canPrompt() {
		return false, &ValidationError{Field: "yes", Reason: "confirmation required but stdin is not a terminal", Example: "--yes"}
	}

	p := newPrompter()
	defer p.Close()

	input, err := p.Prompt(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		return false, err
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}

// PromptValue asks for a value, returning def when the answer is empty.
func PromptValue(p Prompter, label, def string) (string, error) {
	input, err := p.Prompt(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil {
		return "", err
	}
	if input = strings.TrimSpace(input); input == "" {
		return def, nil
	}
	return input, nil
}
