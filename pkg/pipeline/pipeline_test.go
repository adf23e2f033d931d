package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/rmrender/pkg/cache"
	"github.com/matzehuels/rmrender/pkg/core/load"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !rmerrors.Is(err, rmerrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want %v", tt.format, rmerrors.GetCode(err), rmerrors.ErrCodeInvalidFormat)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if diff := cmp.Diff([]string{FormatSVG}, o.Formats); diff != "" {
		t.Errorf("Formats (-want +got):\n%s", diff)
	}
	if o.Alpha() != DefaultTemplateAlpha {
		t.Errorf("Alpha() = %v, want %v", o.Alpha(), DefaultTemplateAlpha)
	}
	if o.DPI != DefaultDPI {
		t.Errorf("DPI = %v, want %v", o.DPI, DefaultDPI)
	}
	if o.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", o.Workers)
	}
	if o.Logger == nil {
		t.Error("Logger not defaulted")
	}

	// Idempotent
	o.Formats = []string{"bogus"}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error = %v, want nil", err)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad format", Options{Formats: []string{"gif"}}},
		{"alpha above one", Options{TemplateAlpha: 1.5}},
		{"negative alpha", Options{TemplateAlpha: -0.1}},
		{"negative dpi", Options{DPI: -1}},
		{"negative page", Options{Pages: []int{-1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("ValidateAndSetDefaults() error = nil, want error")
			}
		})
	}
}

func TestOptionsFormatsDeduped(t *testing.T) {
	o := Options{Formats: []string{"pdf", "svg", "pdf"}}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"pdf", "svg"}, o.Formats); diff != "" {
		t.Errorf("Formats (-want +got):\n%s", diff)
	}
	if !o.Wants(FormatPDF) || o.Wants(FormatPNG) {
		t.Errorf("Wants() disagrees with Formats %v", o.Formats)
	}
}

func TestHideTemplate(t *testing.T) {
	o := Options{HideTemplate: true, TemplateAlpha: 0.5}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.Alpha() != 0 {
		t.Errorf("Alpha() = %v, want 0", o.Alpha())
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	o := Options{TemplateDir: "/t", TemplateAlpha: 0.5, DPI: 300}
	tmpl := &load.Template{Name: "Blank", Data: []byte("<svg/>")}
	hash := cache.Hash(tmpl.Data)
	tests := []struct {
		format string
		tmpl   *load.Template
		want   cache.ArtifactKeyOpts
	}{
		{FormatSVG, tmpl, cache.ArtifactKeyOpts{Format: "svg", TemplateAlpha: 0.5, TemplateHash: hash}},
		{FormatPNG, tmpl, cache.ArtifactKeyOpts{Format: "png@300", TemplateAlpha: 0.5, TemplateHash: hash}},
		{FormatSVG, nil, cache.ArtifactKeyOpts{Format: "svg", TemplateAlpha: 0.5}},
		{FormatJSON, tmpl, cache.ArtifactKeyOpts{Format: "json"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, o.ArtifactKeyOpts(tt.format, tt.tmpl)); diff != "" {
			t.Errorf("ArtifactKeyOpts(%q) (-want +got):\n%s", tt.format, diff)
		}
	}

	edited := &load.Template{Name: "Blank", Data: []byte("<svg><rect/></svg>")}
	if o.ArtifactKeyOpts(FormatPDF, tmpl) == o.ArtifactKeyOpts(FormatPDF, edited) {
		t.Error("ArtifactKeyOpts() ignores template content")
	}

	hidden := Options{TemplateDir: "/t", HideTemplate: true}
	if got := hidden.ArtifactKeyOpts(FormatSVG, tmpl); got.TemplateHash != "" {
		t.Errorf("hidden template key still depends on the template: %+v", got)
	}
}

func TestParsePageSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{"1", []int{0}, false},
		{"1,3-5", []int{0, 2, 3, 4}, false},
		{"5,1,1-2", []int{0, 1, 4}, false},
		{" 2 , 4 ", []int{1, 3}, false},
		{"", nil, false},
		{"0", nil, true},
		{"3-1", nil, true},
		{"a", nil, true},
		{"1-", nil, true},
		{"1-2000000000", nil, true},
		{"10001", nil, true},
		{"9999-10000", []int{9998, 9999}, false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParsePageSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePageSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePageSpec(%q) (-want +got):\n%s", tt.spec, diff)
			}
		})
	}
}
