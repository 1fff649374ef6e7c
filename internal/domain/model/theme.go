package model

import (
	"fmt"
	"slices"
)

// DefaultThemeName identifies the built-in site theme.
const DefaultThemeName = "default"

// Theme is a community CSS theme the site template can load.
type Theme struct {
	Name   string   `json:"name"`
	Modes  []string `json:"modes"`
	Repo   string   `json:"repo,omitempty"`
	Branch string   `json:"branch,omitempty"`
}

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	return Theme{Name: DefaultThemeName, Modes: []string{"dark"}}
}

// IsDefault reports whether t is the built-in theme.
func (t Theme) IsDefault() bool {
	return t.Name == DefaultThemeName
}

// SupportsMode reports whether mode is one of the theme's declared modes.
func (t Theme) SupportsMode(mode string) bool {
	return slices.Contains(t.Modes, mode)
}

// CSSURL returns the raw stylesheet location. Empty for the default theme.
func (t Theme) CSSURL() string {
	if t.IsDefault() || t.Repo == "" {
		return ""
	}
	branch := t.Branch
	if branch == "" {
		branch = "master"
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/obsidian.css", t.Repo, branch)
}
