package security

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "Tab"},
		{name: "dashes", input: "ajax-batch-redirect"},
		{name: "dots inside", input: "Foo.bar"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "  ", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dotdot", input: "..", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "backslash", input: `a\b`, wantErr: true},
		{name: "newline", input: "a\nb", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Fatalf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestJoinUnder(t *testing.T) {
	base := t.TempDir()

	got, err := JoinUnder(base, "Tab", "i18n.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(base, "Tab", "i18n.json"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	for _, elems := range [][]string{{".."}, {"..", "etc", "passwd"}, {"Tab", "..", "..", "x"}} {
		if _, err := JoinUnder(base, elems...); !errors.Is(err, ErrPathTraversal) {
			t.Fatalf("JoinUnder(%v) = %v, want ErrPathTraversal", elems, err)
		}
	}

	// a sibling directory sharing the base as a string prefix is outside
	if _, err := JoinUnder(base, "..", filepath.Base(base)+"-other"); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected sibling directory to be rejected, got %v", err)
	}
}
