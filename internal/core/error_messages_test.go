package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "file too large maps correctly",
			err:         fmt.Errorf("%w: limit 10485760 bytes", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "unsupported format maps correctly",
			err:         &ImportError{Sheet: -1, Err: ErrUnsupportedFormat},
			wantCode:    "FILE002",
			wantMessage: "File is not an Excel workbook",
		},
		{
			name:        "malformed package maps correctly",
			err:         &ImportError{Sheet: -1, Err: fmt.Errorf("%w: zip: not a valid zip file", ErrMalformedPackage)},
			wantCode:    "FILE003",
			wantMessage: "The workbook could not be read",
		},
		{
			name:        "header mismatch inside sheet error",
			err:         &ImportError{Sheet: 1, Name: "Vehicles", Err: fmt.Errorf("%w: column B", ErrHeaderMismatch)},
			wantCode:    "VAL001",
			wantMessage: "Column headers do not match the template",
		},
		{
			name:        "too many rows maps correctly",
			err:         ErrTooManyRows,
			wantCode:    "VAL002",
			wantMessage: "A sheet has more rows than allowed",
		},
		{
			name:        "limiter timeout maps correctly",
			err:         ErrTooManyImports,
			wantCode:    "IMP001",
			wantMessage: "Too many imports in progress",
		},
		{
			name:        "deadline maps to import timeout",
			err:         context.DeadlineExceeded,
			wantCode:    "IMP004",
			wantMessage: "Import timed out",
		},
		{
			name:        "layout not found maps correctly",
			err:         fmt.Errorf("%w: fleet", ErrLayoutNotFound),
			wantCode:    "LAY001",
			wantMessage: "Unknown import layout",
		},
		{
			name:        "duplicate key maps correctly",
			err:         errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "unique constraint maps correctly",
			err:         errors.New("ERROR: unique constraint violated"),
			wantCode:    "DB002",
			wantMessage: "This value must be unique but already exists",
		},
		{
			name:        "foreign key maps correctly",
			err:         errors.New("violates foreign key constraint"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyFile)

	expected := "The uploaded file is empty (Code: FILE005). Please upload a workbook with data rows"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrPersistDisabled,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("%w: 3 > 2", ErrTooManyRows)
		userErr := NewUserError(techErr)

		if userErr.Error() != "A sheet has more rows than allowed" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrTooManyRows) {
			t.Error("Unwrap() should return original error")
		}
	})
}
