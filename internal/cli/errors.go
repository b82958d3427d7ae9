// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling for the webchat CLI.
//
// Commands always return errors; Execute displays them once and maps them
// to an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/webchat-tui/internal/config"
	"github.com/jeranaias/webchat-tui/internal/remote"
	"github.com/jeranaias/webchat-tui/internal/session"
	"github.com/jeranaias/webchat-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the store rejected our credentials
	ExitAuthError = 4
	// ExitNetworkError indicates the store could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a conversation or profile was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "seed", "history")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError.
func NewCommandError(command, reason string, err error) error {
	return &CommandError{Command: command, Reason: reason, Err: err}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err in the standard format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", RenderConditional(ErrorStyle, "[ERROR]"), err.Error())
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var verrs config.ValidateErrors
	var sessionErr *session.ValidationError
	var apiErr *remote.APIError
	switch {
	case errors.As(err, &verrs):
		return ExitConfigError
	case errors.As(err, &sessionErr):
		return ExitUsageError
	case errors.Is(err, remote.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, remote.ErrNotFound),
		errors.Is(err, storage.ErrConversationNotFound),
		errors.Is(err, storage.ErrProfileNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, remote.ErrNotConfigured):
		return ExitConfigError
	case errors.As(err, &apiErr):
		return ExitNetworkError
	}
	return ExitGeneralError
}
