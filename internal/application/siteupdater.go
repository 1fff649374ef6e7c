package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Remote paths of the template files managed by SiteUpdater.
const (
	EnvFilePath     = ".env"
	FaviconFilePath = "src/site/favicon.svg"
)

// Keys written to the site .env file.
const (
	envTheme          = "THEME"
	envBaseTheme      = "BASE_THEME"
	envSiteNameHeader = "SITE_NAME_HEADER"
)

// envNoteSettingKeys maps note setting frontmatter keys to their .env names.
var envNoteSettingKeys = map[string]string{
	model.KeyHomeLink:        "dgHomeLink",
	model.KeyPassFrontmatter: "dgPassFrontmatter",
	model.KeyShowBacklinks:   "dgShowBacklinks",
	model.KeyShowLocalGraph:  "dgShowLocalGraph",
	model.KeyShowInlineTitle: "dgShowInlineTitle",
	model.KeyShowFileTree:    "dgShowFileTree",
	model.KeyEnableSearch:    "dgEnableSearch",
	model.KeyShowToc:         "dgShowToc",
	model.KeyLinkPreview:     "dgLinkPreview",
	model.KeyShowTags:        "dgShowTags",
}

// SiteSettings is the snapshot of settings that drive the site template.
type SiteSettings struct {
	Theme         string
	BaseTheme     string
	SiteName      string
	FaviconPath   string   // Vault path of a custom favicon; empty uses the upstream one.
	TemplateFiles []string // Upstream template paths kept in sync with the site repo.
	NoteDefaults  model.NoteSettings
}

// SiteUpdater proposes site template changes as a pull request.
type SiteUpdater struct {
	remote   driven.RemoteRepository
	upstream driven.TemplateSource
	themes   driven.ThemeCatalog
	notes    driven.NoteSource
	history  driven.PRHistoryStore
	settings SiteSettings
}

// NewSiteUpdater creates a SiteUpdater with all required dependencies.
func NewSiteUpdater(
	remote driven.RemoteRepository,
	upstream driven.TemplateSource,
	themes driven.ThemeCatalog,
	notes driven.NoteSource,
	history driven.PRHistoryStore,
	settings SiteSettings,
) *SiteUpdater {
	return &SiteUpdater{
		remote:   remote,
		upstream: upstream,
		themes:   themes,
		notes:    notes,
		history:  history,
		settings: settings,
	}
}

// CreatePullRequestWithSiteChanges opens a pull request with every template
// file whose desired content differs from the remote. It returns "" with a
// nil error when the remote already matches. A created proposal is appended
// to the pull request history exactly once.
func (u *SiteUpdater) CreatePullRequestWithSiteChanges(ctx context.Context) (string, error) {
	changes, err := u.PlanSiteChanges(ctx)
	if err != nil {
		return "", err
	}
	if len(changes) == 0 {
		slog.Info("site template already up to date")
		return "", nil
	}

	paths := make([]string, 0, len(changes))
	for _, c := range changes {
		paths = append(paths, c.Path)
	}

	url, err := u.remote.CreateChangeProposal(ctx, model.ChangeProposal{
		Title:   "Update site template",
		Body:    "Updates " + strings.Join(paths, ", ") + " to match the publisher settings.",
		Changes: changes,
	})
	if err != nil {
		return "", fmt.Errorf("creating template pull request: %w", err)
	}
	if url == "" {
		return "", nil
	}

	if err := u.history.Append(ctx, url); err != nil {
		return url, fmt.Errorf("recording pull request %s: %w", url, err)
	}

	slog.Info("site template pull request created", "url", url, "files", len(changes))
	return url, nil
}

// PlanSiteChanges computes the template changes without creating anything.
// Invalid settings fail with *model.ConfigurationError before the site
// repository is read.
func (u *SiteUpdater) PlanSiteChanges(ctx context.Context) ([]model.FileChange, error) {
	theme, err := u.resolveTheme(ctx)
	if err != nil {
		return nil, err
	}

	favicon, err := u.desiredFavicon(ctx)
	if err != nil {
		return nil, err
	}

	var changes []model.FileChange

	envChange, err := u.planEnv(ctx, theme)
	if err != nil {
		return nil, err
	}
	if envChange != nil {
		changes = append(changes, *envChange)
	}

	if favicon != nil {
		change, err := u.planBytes(ctx, FaviconFilePath, favicon)
		if err != nil {
			return nil, err
		}
		if change != nil {
			changes = append(changes, *change)
		}
	}

	for _, p := range u.settings.TemplateFiles {
		if p == EnvFilePath || p == FaviconFilePath {
			continue
		}
		desired, err := u.upstream.ReadTemplateFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("reading upstream template %s: %w", p, err)
		}
		change, err := u.planBytes(ctx, p, desired)
		if err != nil {
			return nil, err
		}
		if change != nil {
			changes = append(changes, *change)
		}
	}

	return changes, nil
}

func (u *SiteUpdater) resolveTheme(ctx context.Context) (model.Theme, error) {
	theme := model.DefaultTheme()
	if name := u.settings.Theme; name != "" && name != model.DefaultThemeName {
		found, err := u.themes.FindTheme(ctx, name)
		if err != nil {
			if model.IsNotFound(err) {
				return model.Theme{}, &model.ConfigurationError{
					Field:   "theme",
					Message: fmt.Sprintf("unknown theme %q", name),
				}
			}
			return model.Theme{}, fmt.Errorf("resolving theme %q: %w", name, err)
		}
		theme = found
	}

	// The built-in theme declares its modes too.
	if !theme.SupportsMode(u.settings.BaseTheme) {
		return model.Theme{}, &model.ConfigurationError{
			Field: "base theme",
			Message: fmt.Sprintf("theme %q does not support mode %q (supported: %s)",
				theme.Name, u.settings.BaseTheme, strings.Join(theme.Modes, ", ")),
		}
	}
	return theme, nil
}

func (u *SiteUpdater) desiredFavicon(ctx context.Context) ([]byte, error) {
	if u.settings.FaviconPath == "" {
		content, err := u.upstream.ReadTemplateFile(ctx, FaviconFilePath)
		if err != nil {
			if model.IsNotFound(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("reading upstream favicon: %w", err)
		}
		return content, nil
	}

	content, err := u.notes.ReadBinary(ctx, u.settings.FaviconPath)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, &model.ConfigurationError{
				Field:   "favicon path",
				Message: fmt.Sprintf("%s does not exist in the vault", u.settings.FaviconPath),
			}
		}
		return nil, fmt.Errorf("reading favicon %s: %w", u.settings.FaviconPath, err)
	}
	return content, nil
}

// planEnv compares the remote .env field by field. Keys the publisher does
// not manage are preserved.
func (u *SiteUpdater) planEnv(ctx context.Context, theme model.Theme) (*model.FileChange, error) {
	current, err := u.readRemote(ctx, EnvFilePath)
	if err != nil {
		return nil, err
	}

	currentEnv := map[string]string{}
	if current != nil {
		currentEnv, err = godotenv.Unmarshal(string(current))
		if err != nil {
			return nil, fmt.Errorf("parsing remote %s: %w", EnvFilePath, err)
		}
	}

	desired := DesiredEnv(currentEnv, theme, u.settings)
	if current != nil && maps.Equal(currentEnv, desired) {
		return nil, nil
	}

	body, err := godotenv.Marshal(desired)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", EnvFilePath, err)
	}
	return &model.FileChange{Path: EnvFilePath, Content: []byte(body + "\n")}, nil
}

// DesiredEnv returns the .env fields the site should have, starting from the
// current fields so unmanaged keys survive.
func DesiredEnv(current map[string]string, theme model.Theme, s SiteSettings) map[string]string {
	desired := maps.Clone(current)
	if desired == nil {
		desired = map[string]string{}
	}

	if theme.IsDefault() {
		delete(desired, envTheme)
		delete(desired, envBaseTheme)
	} else {
		desired[envTheme] = theme.CSSURL()
		desired[envBaseTheme] = s.BaseTheme
	}
	desired[envSiteNameHeader] = s.SiteName

	for key, value := range s.NoteDefaults.Fields() {
		desired[envNoteSettingKeys[key]] = strconv.FormatBool(value)
	}
	return desired
}

func (u *SiteUpdater) planBytes(ctx context.Context, path string, desired []byte) (*model.FileChange, error) {
	current, err := u.readRemote(ctx, path)
	if err != nil {
		return nil, err
	}
	if current != nil && bytes.Equal(current, desired) {
		return nil, nil
	}
	return &model.FileChange{Path: path, Content: desired}, nil
}

// readRemote returns nil content when path does not exist remotely.
func (u *SiteUpdater) readRemote(ctx context.Context, path string) ([]byte, error) {
	file, err := u.remote.Read(ctx, path)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading remote %s: %w", path, err)
	}
	if file.Content == nil {
		return []byte{}, nil
	}
	return file.Content, nil
}
