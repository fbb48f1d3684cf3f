package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target *Error
	}{
		{"unknown kind", UnknownKind(7), UnknownLocationKind},
		{"storage", StorageIO("read", "/x/db.json", fs.ErrPermission), StorageIOError},
		{"malformed", Malformed("/x/db.json", nil), MalformedDocumentError},
		{"deserialization", Deserialization("k", "int", nil), DeserializationError},
		{"serialization", Serialization("k", nil), SerializationError},
		{"bad argument", BadArgument("empty name"), InvalidArgumentError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !stderrors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !stderrors.Is(wrapped, tt.target) {
				t.Errorf("errors.Is through wrapping = false")
			}
			for _, other := range []*Error{UnknownLocationKind, StorageIOError, MalformedDocumentError, DeserializationError, SerializationError, InvalidArgumentError} {
				if other.Code() == tt.target.Code() {
					continue
				}
				if stderrors.Is(tt.err, other) {
					t.Errorf("errors.Is(%v, %s) = true", tt.err, other.Code())
				}
			}
		})
	}
}

func TestStorageIOUnwrap(t *testing.T) {
	err := StorageIO("write", "/x/db.json", fs.ErrPermission)
	if !stderrors.Is(err, fs.ErrPermission) {
		t.Error("wrapped cause not reachable")
	}
	if got, want := err.Error(), "failed to write /x/db.json: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := err.Details()["path"]; got != "/x/db.json" {
		t.Errorf("Details()[path] = %v", got)
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := BadArgument("database name is required")
	if err.Unwrap() != nil {
		t.Error("expected no wrapped error")
	}
	if got := err.Error(); got != "database name is required" {
		t.Errorf("Error() = %q", got)
	}
}
