package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   bool
	}{
		{name: "plain resume name", input: "resume.pdf", want: "resume.pdf"},
		{name: "trims whitespace", input: "  resume.pdf  ", want: "resume.pdf"},
		{name: "flattens slashes", input: "a/b/resume.pdf", want: "a_b_resume.pdf"},
		{name: "flattens backslashes", input: `a\resume.docx`, want: "a_resume.docx"},
		{name: "rejects traversal", input: "../../etc/passwd", err: true},
		{name: "rejects empty", input: "   ", err: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.input)
			if tt.err {
				if !errors.Is(err, ErrBadFileName) {
					t.Fatalf("err = %v, want ErrBadFileName", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFileName: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
