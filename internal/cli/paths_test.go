package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestXDGDirs(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		dirFn  func() (string, error)
		subdir string
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir, ".cache"},
		{"config", "XDG_CONFIG_HOME", configDir, ".config"},
	}

	for _, tt := range tests {
		t.Run(tt.name+" default", func(t *testing.T) {
			t.Setenv(tt.env, "")
			dir, err := tt.dirFn()
			if err != nil {
				t.Fatalf("%sDir() error: %v", tt.name, err)
			}
			home, _ := os.UserHomeDir()
			if want := filepath.Join(home, tt.subdir, appName); dir != want {
				t.Errorf("%sDir() = %q, want %q", tt.name, dir, want)
			}
		})

		t.Run(tt.name+" xdg", func(t *testing.T) {
			custom := filepath.Join(t.TempDir(), "xdg")
			t.Setenv(tt.env, custom)
			dir, err := tt.dirFn()
			if err != nil {
				t.Fatalf("%sDir() error: %v", tt.name, err)
			}
			if want := filepath.Join(custom, appName); dir != want {
				t.Errorf("%sDir() = %q, want %q", tt.name, dir, want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"SVG, pdf", []string{"svg", "pdf"}},
		{"png,,json", []string{"png", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}
