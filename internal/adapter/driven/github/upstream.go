package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// Community theme registry maintained by Obsidian.
const (
	themeRegistryOwner = "obsidianmd"
	themeRegistryRepo  = "obsidian-releases"
	themeRegistryPath  = "community-css-themes.json"
	themeCacheTTL      = time.Hour
)

// ReadTemplateFile reads path from the upstream site template default branch.
func (c *Client) ReadTemplateFile(ctx context.Context, path string) ([]byte, error) {
	owner, repo, err := splitRepo(c.opts.TemplateRepo)
	if err != nil {
		return nil, err
	}
	file, err := c.readAt(allowCached(ctx), owner, repo, path, "")
	if err != nil {
		return nil, err
	}
	return file.Content, nil
}

type registryTheme struct {
	Name   string   `json:"name"`
	Repo   string   `json:"repo"`
	Branch string   `json:"branch"`
	Modes  []string `json:"modes"`
}

// ListThemes returns the community theme registry. Results are cached for
// an hour.
func (c *Client) ListThemes(ctx context.Context) ([]model.Theme, error) {
	c.mu.Lock()
	if c.themes != nil && time.Since(c.themesAt) < themeCacheTTL {
		themes := c.themes
		c.mu.Unlock()
		return themes, nil
	}
	c.mu.Unlock()

	file, err := c.readAt(allowCached(ctx), themeRegistryOwner, themeRegistryRepo, themeRegistryPath, "")
	if err != nil {
		return nil, fmt.Errorf("fetching theme registry: %w", err)
	}

	var entries []registryTheme
	if err := json.Unmarshal(file.Content, &entries); err != nil {
		return nil, fmt.Errorf("decoding theme registry: %w", err)
	}

	themes := make([]model.Theme, 0, len(entries)+1)
	themes = append(themes, model.DefaultTheme())
	for _, e := range entries {
		themes = append(themes, model.Theme{Name: e.Name, Modes: e.Modes, Repo: e.Repo, Branch: e.Branch})
	}

	c.mu.Lock()
	c.themes = themes
	c.themesAt = time.Now()
	c.mu.Unlock()

	return themes, nil
}

// FindTheme looks a theme up by name, case-insensitively.
func (c *Client) FindTheme(ctx context.Context, name string) (model.Theme, error) {
	themes, err := c.ListThemes(ctx)
	if err != nil {
		return model.Theme{}, err
	}
	for _, t := range themes {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return model.Theme{}, fmt.Errorf("theme %q: %w", name, model.ErrNotFound)
}
