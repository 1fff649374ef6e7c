package driven

import (
	"context"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// TemplateSource reads files from the upstream site template repository.
type TemplateSource interface {
	ReadTemplateFile(ctx context.Context, path string) ([]byte, error)
}

// ThemeCatalog resolves community themes by name.
type ThemeCatalog interface {
	ListThemes(ctx context.Context) ([]model.Theme, error)
	FindTheme(ctx context.Context, name string) (model.Theme, error)
}
