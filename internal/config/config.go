// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// EnvPrefix is prepended to every variable name read by Load.
const EnvPrefix = "GARDENPUBLISH_"

// DefaultTemplateFiles are the upstream site template files kept in sync by
// the template pull request.
var DefaultTemplateFiles = []string{
	".eleventy.js",
	"netlify.toml",
	"package.json",
	"package-lock.json",
	"src/site/404.njk",
	"src/site/sitemap.njk",
	"src/site/_data/meta.js",
	"src/site/_includes/layouts/index.njk",
	"src/site/_includes/layouts/note.njk",
	"src/site/styles/style.scss",
}

var repoNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
var fullRepoRe = regexp.MustCompile(`^[A-Za-z0-9._-]+/[A-Za-z0-9._-]+$`)

func init() {
	// Validation errors are keyed by the variable name the user sets.
	validation.ErrorTag = "env"
}

// Config holds the application configuration loaded from environment
// variables. It is loaded once and passed by value into components.
type Config struct {
	GitHubToken  string `env:"GARDENPUBLISH_GITHUB_TOKEN"`
	GitHubOwner  string `env:"GARDENPUBLISH_GITHUB_OWNER"`
	GitHubRepo   string `env:"GARDENPUBLISH_GITHUB_REPO"`
	GitHubBranch string `env:"GARDENPUBLISH_GITHUB_BRANCH"` // Empty uses the repository default branch.
	GitHubAPIURL string `env:"GARDENPUBLISH_GITHUB_API_URL"`

	BaseURL    string `env:"GARDENPUBLISH_BASE_URL"`
	VaultPath  string `env:"GARDENPUBLISH_VAULT_PATH"`
	RootFolder string `env:"GARDENPUBLISH_ROOT_FOLDER"`
	Slugify    bool   `env:"GARDENPUBLISH_SLUGIFY"`

	Theme         string   `env:"GARDENPUBLISH_THEME"`
	BaseTheme     string   `env:"GARDENPUBLISH_BASE_THEME"`
	FaviconPath   string   `env:"GARDENPUBLISH_FAVICON_PATH"`
	SiteName      string   `env:"GARDENPUBLISH_SITE_NAME"`
	TemplateRepo  string   `env:"GARDENPUBLISH_TEMPLATE_REPO"`
	TemplateFiles []string `env:"GARDENPUBLISH_TEMPLATE_FILES"`
	NoteDefaults  model.NoteSettings

	DBPath       string        `env:"GARDENPUBLISH_DB_PATH"`
	SecretKey    []byte        // 32-byte AES key; nil disables credential storage.
	ListenAddr   string        `env:"GARDENPUBLISH_LISTEN_ADDR"`
	SyncInterval time.Duration `env:"GARDENPUBLISH_SYNC_INTERVAL"`
	Concurrency  int           `env:"GARDENPUBLISH_CONCURRENCY"`
	LogLevel     slog.Level
}

// HasRemote reports whether enough is configured to build a GitHub client.
// The token may still come from the credential store.
func (c *Config) HasRemote() bool {
	return c.GitHubOwner != "" && c.GitHubRepo != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Nothing is required at load time; commands that talk to GitHub call
// ValidateRemote.
func Load() (*Config, error) {
	cfg := &Config{
		GitHubToken:   os.Getenv(EnvPrefix + "GITHUB_TOKEN"),
		GitHubOwner:   strings.TrimSpace(os.Getenv(EnvPrefix + "GITHUB_OWNER")),
		GitHubRepo:    strings.TrimSpace(os.Getenv(EnvPrefix + "GITHUB_REPO")),
		GitHubBranch:  strings.TrimSpace(os.Getenv(EnvPrefix + "GITHUB_BRANCH")),
		GitHubAPIURL:  strings.TrimSpace(os.Getenv(EnvPrefix + "GITHUB_API_URL")),
		BaseURL:       strings.TrimSpace(os.Getenv(EnvPrefix + "BASE_URL")),
		VaultPath:     lookupDefault("VAULT_PATH", "."),
		RootFolder:    strings.Trim(strings.TrimSpace(os.Getenv(EnvPrefix+"ROOT_FOLDER")), "/"),
		Slugify:       true,
		Theme:         lookupDefault("THEME", model.DefaultThemeName),
		BaseTheme:     lookupDefault("BASE_THEME", "dark"),
		FaviconPath:   strings.TrimSpace(os.Getenv(EnvPrefix + "FAVICON_PATH")),
		SiteName:      lookupDefault("SITE_NAME", "Digital Garden"),
		TemplateRepo:  lookupDefault("TEMPLATE_REPO", "oleeskild/digitalgarden"),
		TemplateFiles: slices.Clone(DefaultTemplateFiles),
		NoteDefaults:  model.DefaultNoteSettings(),
		DBPath:        lookupDefault("DB_PATH", "gardenpublish.db"),
		ListenAddr:    lookupDefault("LISTEN_ADDR", "127.0.0.1:8080"),
		SyncInterval:  5 * time.Minute,
		Concurrency:   1,
		LogLevel:      slog.LevelInfo,
	}

	if v, ok := lookup("SLUGIFY"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%sSLUGIFY has invalid boolean %q: %w", EnvPrefix, v, err)
		}
		cfg.Slugify = parsed
	}

	if v, ok := lookup("TEMPLATE_FILES"); ok {
		cfg.TemplateFiles = splitList(v)
	}

	if v, ok := lookup("NOTE_DEFAULTS"); ok {
		defaults, err := ParseNoteDefaults(v)
		if err != nil {
			return nil, fmt.Errorf("%sNOTE_DEFAULTS: %w", EnvPrefix, err)
		}
		cfg.NoteDefaults = defaults
	}

	if v, ok := lookup("SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%sSECRET_KEY must be hex encoded: %w", EnvPrefix, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%sSECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", EnvPrefix, len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := lookup("SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%sSYNC_INTERVAL has invalid duration %q: %w", EnvPrefix, v, err)
		}
		cfg.SyncInterval = parsed
	}

	if v, ok := lookup("CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%sCONCURRENCY has invalid integer %q: %w", EnvPrefix, v, err)
		}
		cfg.Concurrency = parsed
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GitHubOwner, validation.Match(repoNameRe)),
		validation.Field(&c.GitHubRepo, validation.Match(repoNameRe)),
		validation.Field(&c.BaseTheme, validation.Required, validation.In("dark", "light")),
		validation.Field(&c.Theme, validation.Required),
		validation.Field(&c.TemplateRepo, validation.Required, validation.Match(fullRepoRe)),
		validation.Field(&c.VaultPath, validation.Required),
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.SyncInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(32)),
	)
}

// ValidateRemote checks the settings needed to reach the site repository.
func (c *Config) ValidateRemote() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GitHubOwner, validation.Required),
		validation.Field(&c.GitHubRepo, validation.Required),
	)
}

// ParseNoteDefaults parses a comma separated list of key=bool pairs using the
// frontmatter key names, e.g. "dg-show-toc=true,dg-home-link=false". Unset
// keys keep their built-in defaults.
func ParseNoteDefaults(s string) (model.NoteSettings, error) {
	fields := map[string]bool{}
	for _, pair := range splitList(s) {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return model.NoteSettings{}, fmt.Errorf("expected key=bool, got %q", pair)
		}
		key = strings.TrimSpace(key)
		if !model.IsNoteSettingKey(key) {
			return model.NoteSettings{}, fmt.Errorf("unknown note setting %q", key)
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return model.NoteSettings{}, fmt.Errorf("%s: invalid boolean %q", key, raw)
		}
		fields[key] = v
	}
	return model.MergeNoteSettings(model.DefaultNoteSettings(), model.OverridesFromFields(fields)), nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	return strings.TrimSpace(v), ok
}

func lookupDefault(name, def string) string {
	if v, ok := lookup(name); ok && v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
