// Package embedding implements the deterministic, model-free embedding
// scheme used by the index. Tokens are hashed into a fixed number of buckets,
// so identical text yields bit-identical vectors on any machine, with no
// model loading cost and no third-party floating-point nondeterminism.
package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"regexp"
	"strings"

	"filescript/internal/domain"
)

const (
	// SchemeVersion changes whenever tokenization, hashing or folding
	// changes. Stores written under another version are legacy.
	SchemeVersion = 2

	// DefaultDimension is the bucket count of the current scheme.
	DefaultDimension = 256

	hashFunction = "sha256"
	tokenPattern = `\w+`
)

// HashEmbedder folds SHA-256 token hashes into a fixed-dimension vector,
// accumulating one unit of weight per token occurrence, then L2-normalizes.
type HashEmbedder struct {
	dimension int
	tokenRe   *regexp.Regexp
}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{
		dimension: DefaultDimension,
		tokenRe:   regexp.MustCompile(tokenPattern),
	}
}

func (e *HashEmbedder) Dimension() int { return e.dimension }

// Metadata describes the current scheme for index compatibility checks.
func (e *HashEmbedder) Metadata() domain.Metadata {
	return domain.Metadata{
		SchemeVersion: SchemeVersion,
		Dimension:     e.dimension,
		HashFunction:  hashFunction,
		TokenPattern:  tokenPattern,
	}
}

func (e *HashEmbedder) Embed(text string) []float64 {
	vec := make([]float64, e.dimension)
	for _, tok := range e.tokenRe.FindAllString(strings.ToLower(text), -1) {
		sum := sha256.Sum256([]byte(tok))
		bucket := binary.BigEndian.Uint64(sum[:8]) % uint64(e.dimension)
		vec[bucket]++
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// RecordInput is the canonical embedding input for an indexed page: the
// owning file path as context, then the page text.
func RecordInput(relativePath, text string) string {
	if text == "" {
		return "File: " + relativePath
	}
	return "File: " + relativePath + "\n" + text
}

// Dot is the similarity score between two vectors of equal scheme.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
