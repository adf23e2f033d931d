package errors

import (
	"strings"
	"testing"
)

func TestValidatePageID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", "5b2f8f2e-5f0e-4b37-9d53-7a8f1c0b6d11", false},
		{"valid numbered", "3", false},
		{"valid with underscore", "page_1", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 200), true},
		{"path traversal ..", "..", true},
		{"slash", "doc/page", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePageID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePageID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPageID) {
				t.Errorf("ValidatePageID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPageID)
			}
		})
	}
}

func TestValidateDocumentID(t *testing.T) {
	if err := ValidateDocumentID("d1b0e1c2-0000-4000-8000-000000000000"); err != nil {
		t.Errorf("ValidateDocumentID(uuid) error = %v", err)
	}
	err := ValidateDocumentID("../escape")
	if err == nil {
		t.Fatal("ValidateDocumentID(../escape) error = nil, want error")
	}
	if !Is(err, ErrCodeInvalidInput) {
		t.Errorf("ValidateDocumentID code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
	}
}

func TestValidateTemplateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"blank", "Blank", false},
		{"lines", "P Lines medium", false},
		{"landscape grid", "LS Grid margin large", false},
		{"with comma", "P Checklist, small", false},

		{"empty", "", true},
		{"traversal", "../../etc/passwd", true},
		{"slash", "dir/name", true},
		{"leading space", " Blank", true},
		{"too long", strings.Repeat("x", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemplateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"page file", "doc/page.rm", false},
		{"content file", "doc.content", false},
		{"highlights", "doc.highlights/page.json", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "doc/../../x", true},
		{"backslash", "doc\\page.rm", true},
		{"control", "doc\x07", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
