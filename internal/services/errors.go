package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrUnavailable   = errors.New("capability unavailable")
	ErrTransient     = errors.New("transient failure")
)

// Severity partitions pipeline failures for reporting and abort decisions.
type Severity int

const (
	// SeverityRecoverable failures are recorded as warnings and the pass continues.
	SeverityRecoverable Severity = iota
	// SeverityAdvisory failures are surfaced in the report but never block a build.
	SeverityAdvisory
	// SeverityFatal failures abort the pass; the previously committed state stays authoritative.
	SeverityFatal
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the severity the orchestrator should apply.
// Structural and configuration problems are fatal; timeouts and unavailable
// capabilities degrade per-item; everything else is recoverable per-item.
func Classify(err error) Severity {
	switch {
	case err == nil:
		return SeverityAdvisory
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return SeverityFatal
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrUnavailable), errors.Is(err, ErrNotFound):
		return SeverityRecoverable
	default:
		return SeverityRecoverable
	}
}

// IsFatal reports whether err should abort the whole pass.
func IsFatal(err error) bool {
	return err != nil && Classify(err) == SeverityFatal
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
