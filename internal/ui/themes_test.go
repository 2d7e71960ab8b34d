package ui

import (
	"os"
	"testing"

	"github.com/fatih/color"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		attrs []color.Attribute
		want  string
	}{
		{nil, ""},
		{[]color.Attribute{color.Reset}, "\x1b[0m"},
		{[]color.Attribute{color.Bold}, "\x1b[1m"},
		{[]color.Attribute{color.FgHiBlue, color.Bold}, "\x1b[94;1m"},
	}
	for _, tt := range tests {
		if got := Escape(tt.attrs...); got != tt.want {
			t.Errorf("Escape(%v): expected %q, got %q", tt.attrs, tt.want, got)
		}
	}
}

func TestSetTheme(t *testing.T) {
	saved := GetCurrentTheme()
	savedNoColor := color.NoColor
	defer func() {
		SetCurrentTheme(saved)
		color.NoColor = savedNoColor
	}()

	for _, tc := range []struct {
		name string
		want string
	}{
		{"light", "light"},
		{"none", "none"},
		{"dark", "dark"},
		{"unknown", "dark"},
	} {
		SetTheme(tc.name)
		if got := GetCurrentTheme().Name; got != tc.want {
			t.Errorf("SetTheme(%q): expected %q, got %q", tc.name, tc.want, got)
		}
	}

	SetTheme("none")
	if ColorRed() != "" || ColorReset() != "" || ColorBold() != "" {
		t.Error("Expected empty escape sequences for the none theme")
	}
	if !color.NoColor {
		t.Error("Expected fatih/color to be disabled with the none theme")
	}
}

func TestInitTheme(t *testing.T) {
	saved := GetCurrentTheme()
	savedNoColor := color.NoColor
	defer func() {
		SetCurrentTheme(saved)
		color.NoColor = savedNoColor
	}()

	t.Run("flag disables colors", func(t *testing.T) {
		InitTheme(true)
		if GetCurrentTheme().Name != "none" {
			t.Errorf("Expected none theme, got %q", GetCurrentTheme().Name)
		}
	})

	t.Run("NO_COLOR disables colors", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		color.NoColor = false
		InitTheme(false)
		if GetCurrentTheme().Name != "none" {
			t.Errorf("Expected none theme, got %q", GetCurrentTheme().Name)
		}
	})

	t.Run("terminal keeps colors", func(t *testing.T) {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t.Skip("NO_COLOR is set in the test environment")
		}
		color.NoColor = false
		InitTheme(false)
		if GetCurrentTheme().Name != "dark" {
			t.Errorf("Expected dark theme, got %q", GetCurrentTheme().Name)
		}
	})
}
