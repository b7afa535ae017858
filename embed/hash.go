package embed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/twmb/murmur3"
	"github.com/viant/tenant-vec/vector"
)

const (
	textSeed  uint32 = 0x9747b28c
	imageSeed uint32 = 0x5bd1e995

	// shingle is the byte window hashed when embedding file content.
	shingle = 16
)

// ErrNothingToEmbed is returned for empty text or empty files.
var ErrNothingToEmbed = errors.New("embed: nothing to embed")

// Hash is a feature-hashing embedder. Each token (or byte shingle, for
// files) is hashed into one of dim buckets with a hash-derived sign and the
// result is L2-normalized. Inputs that share features land close together.
type Hash struct {
	dim      int
	model    string
	language string
}

// HashOption configures a Hash embedder.
type HashOption func(*Hash)

// WithModel overrides the recorded model name.
func WithModel(model string) HashOption {
	return func(h *Hash) {
		if model != "" {
			h.model = model
		}
	}
}

// WithLanguage strips stop words of the given ISO 639-1 language from text
// before hashing. An empty language keeps every token.
func WithLanguage(lang string) HashOption {
	return func(h *Hash) { h.language = lang }
}

// NewHash creates a Hash embedder producing vectors of dim dimensions.
func NewHash(dim int, opts ...HashOption) (*Hash, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embed: dimension must be positive, got %d", dim)
	}
	h := &Hash{dim: dim, model: fmt.Sprintf("hash-%d", dim)}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Dim returns the vector dimension.
func (h *Hash) Dim() int { return h.dim }

// Model returns the model name.
func (h *Hash) Model() string { return h.model }

// EmbedText hashes the lowercased word tokens of text.
func (h *Hash) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned := strings.ToLower(text)
	if h.language != "" {
		if s := stopwords.CleanString(cleaned, h.language, true); strings.TrimSpace(s) != "" {
			cleaned = s
		}
	}
	tokens := strings.FieldsFunc(cleaned, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r > 127)
	})
	if len(tokens) == 0 {
		return nil, ErrNothingToEmbed
	}
	out := make([]float32, h.dim)
	for _, tok := range tokens {
		h.add(out, murmur3.SeedSum32(textSeed, []byte(tok)))
	}
	return vector.Normalize(out), nil
}

// EmbedImage hashes overlapping byte shingles of the file at path.
func (h *Hash) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNothingToEmbed, path)
	}
	out := make([]float32, h.dim)
	if len(data) <= shingle {
		h.add(out, murmur3.SeedSum32(imageSeed, data))
		return vector.Normalize(out), nil
	}
	for off := 0; off+shingle <= len(data); off += shingle / 2 {
		if off%(1<<16) == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		h.add(out, murmur3.SeedSum32(imageSeed, data[off:off+shingle]))
	}
	return vector.Normalize(out), nil
}

func (h *Hash) add(out []float32, sum uint32) {
	bucket := int(sum>>1) % h.dim
	if sum&1 == 0 {
		out[bucket]++
	} else {
		out[bucket]--
	}
}

var _ Embedder = (*Hash)(nil)
