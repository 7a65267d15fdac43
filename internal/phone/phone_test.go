package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain digits",
			input:    "33612345678",
			expected: "+33612345678",
		},
		{
			name:     "already prefixed",
			input:    "+33612345678",
			expected: "+33612345678",
		},
		{
			name:     "surrounding whitespace",
			input:    "  33612345678 ",
			expected: "+33612345678",
		},
		{
			name:     "fifteen digits max",
			input:    "123456789012345",
			expected: "+123456789012345",
		},
		{
			name:    "too short",
			input:   "123456789",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "1234567890123456",
			wantErr: true,
		},
		{
			name:    "letters",
			input:   "33six2345678",
			wantErr: true,
		},
		{
			name:    "inner plus",
			input:   "336+2345678",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidIdentifier) {
					t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"33612345678", "+491701234567", "12025550123"}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q != %q", once, twice)
		}
	}
}
