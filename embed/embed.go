package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/tenant-vec/config"
)

// Embedder turns images and text into vectors of a fixed dimension.
type Embedder interface {
	// EmbedImage embeds the image file at path.
	EmbedImage(ctx context.Context, path string) ([]float32, error)
	// EmbedText embeds free-form text into the same space.
	EmbedText(ctx context.Context, text string) ([]float32, error)
	// Dim returns the vector dimension.
	Dim() int
	// Model names the model version recorded with stored embeddings.
	Model() string
}

// New returns the backend named by cfg.Backend.
func New(cfg config.Embed) (Embedder, error) {
	switch strings.ToLower(cfg.Backend) {
	case "hash":
		return NewHash(cfg.Dim, WithModel(cfg.Model), WithLanguage(cfg.Language))
	}
	return nil, fmt.Errorf("embed: unknown backend %q", cfg.Backend)
}
