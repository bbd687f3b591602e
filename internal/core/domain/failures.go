package domain

import (
	"fmt"
	"strings"
)

// LinkFailure records a file that could not be hard-linked into a prefix.
// It is a warning unless the copy fallback fails as well.
type LinkFailure struct {
	Package string
	File    string
	Cause   error
}

// Error implements error.
func (f *LinkFailure) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", ErrLinkFailed.Error(), f.File, f.Package, f.Cause)
}

// Unwrap exposes both the class and the underlying cause.
func (f *LinkFailure) Unwrap() []error {
	return []error{ErrLinkFailed, f.Cause}
}

// MaterializationError is returned when a package could not be placed into a prefix.
// Completed lists the packages that were fully placed before the failure.
type MaterializationError struct {
	Package   string
	Completed []string
	Cause     error
}

// Error implements error.
func (e *MaterializationError) Error() string {
	msg := fmt.Sprintf("%s %s", ErrMaterializationFailed.Error(), e.Package)
	if len(e.Completed) > 0 {
		msg += fmt.Sprintf(" (completed: %s)", strings.Join(e.Completed, ", "))
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the class and the underlying cause.
func (e *MaterializationError) Unwrap() []error {
	return []error{ErrMaterializationFailed, e.Cause}
}

// PartialUpdateError is returned when a merge or update stopped after the prefix was changed.
// The spec file still describes the previous state.
type PartialUpdateError struct {
	Completed []string
	Remaining []string
	Cause     error
}

// Error implements error.
func (e *PartialUpdateError) Error() string {
	var b strings.Builder
	b.WriteString(ErrPartiallyUpdated.Error())
	if len(e.Completed) > 0 {
		b.WriteString("\ncompleted: ")
		b.WriteString(strings.Join(e.Completed, ", "))
	}
	if len(e.Remaining) > 0 {
		b.WriteString("\nremaining: ")
		b.WriteString(strings.Join(e.Remaining, ", "))
	}
	if e.Cause != nil {
		b.WriteString("\ncause: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the class and the underlying cause.
func (e *PartialUpdateError) Unwrap() []error {
	return []error{ErrPartiallyUpdated, e.Cause}
}

// CommandError is returned when a program run inside an environment exits unsuccessfully.
// ExitCode is -1 when the process did not report one.
type CommandError struct {
	Command  string
	ExitCode int
	Cause    error
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s exited with code %d", ErrCommandFailed.Error(), e.Command, e.ExitCode)
}

// Unwrap exposes both the class and the underlying cause.
func (e *CommandError) Unwrap() []error {
	return []error{ErrCommandFailed, e.Cause}
}
