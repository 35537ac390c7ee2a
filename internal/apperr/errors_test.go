package apperr

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "https://x.test", Status: 404}
	if !strings.Contains(err.Error(), "http 404") {
		t.Errorf("error = %q", err.Error())
	}
	err = &FetchError{URL: "https://x.test", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("FetchError should unwrap to its cause")
	}
}

func TestInputParseError_As(t *testing.T) {
	var wrapped error = &InputParseError{Err: errors.New("bad token")}
	var target *InputParseError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed")
	}
	if !strings.Contains(target.Error(), "bad token") {
		t.Errorf("error = %q", target.Error())
	}
}
