package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrValidation, "content", "parse", "bad front matter", cause)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "derive", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Severity
	}{
		{"validation is fatal", Wrap(ErrValidation, "content", "parse", "", nil), SeverityFatal},
		{"configuration is fatal", Wrap(ErrConfiguration, "config", "load", "", nil), SeverityFatal},
		{"timeout recovers", Wrap(ErrTimeout, "vision", "annotate", "", nil), SeverityRecoverable},
		{"unavailable recovers", Wrap(ErrUnavailable, "vision", "annotate", "", nil), SeverityRecoverable},
		{"plain errors recover", fmt.Errorf("encode failed"), SeverityRecoverable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if IsFatal(Wrap(ErrTimeout, "", "", "", nil)) {
		t.Fatal("timeout must not abort the pass")
	}
	if !IsFatal(Wrap(ErrValidation, "", "", "", nil)) {
		t.Fatal("validation failure must abort the pass")
	}
}
