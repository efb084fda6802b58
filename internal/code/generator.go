// Package code generates and validates human-typable project codes.
package code

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"

	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
)

// charset is the 36-symbol alphabet used for project codes. Uppercase plus
// digits keeps codes unambiguous when read aloud or typed from a screenshot.
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	sections      = 3
	sectionLength = 3
	separator     = "-"

	// keyspace is 36^9, the number of distinct codes.
	keyspace = 101559956668416

	// MaxBatchCount bounds GenerateMany so a single call cannot pin memory
	// or spin indefinitely.
	MaxBatchCount = 100000

	// DefaultUniqueAttempts is the retry budget of GenerateUnique when the
	// caller does not care to tune it.
	DefaultUniqueAttempts = 100
)

// codePattern is the structural invariant every persisted or returned code
// satisfies.
var codePattern = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{3}-[A-Z0-9]{3}$`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Generator produces project codes from a cryptographic randomness source.
// It holds no state; a zero value is ready to use.
type Generator struct{}

// NewGenerator returns a ready-to-use Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate draws nine symbols uniformly from the 36-symbol alphabet and
// groups them 3-3-3, e.g. "K4F-9QW-2ZD".
func (g *Generator) Generate() (string, error) {
	parts := make([]string, 0, sections)
	buf := make([]byte, sectionLength)
	for i := 0; i < sections; i++ {
		for j := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", fmt.Errorf("failed to generate random symbol: %w", err)
			}
			buf[j] = charset[n.Int64()]
		}
		parts = append(parts, string(buf))
	}
	return strings.Join(parts, separator), nil
}

// IsValidFormat checks the 3-3-3 structure only. It says nothing about
// whether the code exists or is still live.
func IsValidFormat(code string) bool {
	return codePattern.MatchString(code)
}

// Normalize trims, uppercases and strips internal whitespace so user-typed
// codes with stray spaces still match the format check.
func Normalize(code string) string {
	return whitespacePattern.ReplaceAllString(strings.ToUpper(strings.TrimSpace(code)), "")
}

// GenerateUnique retries Generate until it finds a code absent from existing
// or the attempt budget runs out. When the existing set is large relative to
// the budget it fails fast instead of grinding through doomed retries; the
// 1000/100 threshold is a tunable guard, not a correctness rule.
func (g *Generator) GenerateUnique(existing map[string]struct{}, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultUniqueAttempts
	}
	if len(existing) > 1000 && maxAttempts < 100 {
		return "", fmt.Errorf("%w: %d existing codes for only %d attempts",
			apperrors.ErrCodeGenerationFailed, len(existing), maxAttempts)
	}
	for i := 0; i < maxAttempts; i++ {
		c, err := g.Generate()
		if err != nil {
			return "", err
		}
		if _, taken := existing[c]; !taken {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: exhausted %d attempts", apperrors.ErrCodeGenerationFailed, maxAttempts)
}

// GenerateMany returns count distinct codes. It accumulates into a set until
// satisfied or the attempt ceiling (count*10, capped at one million) is hit,
// then fails outright rather than returning a short list.
func (g *Generator) GenerateMany(count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid code count: %d", count)
	}
	if count > MaxBatchCount {
		return nil, fmt.Errorf("requested code count %d exceeds maximum %d", count, MaxBatchCount)
	}

	maxAttempts := count * 10
	if maxAttempts > 1000000 {
		maxAttempts = 1000000
	}

	seen := make(map[string]struct{}, count)
	codes := make([]string, 0, count)
	for attempts := 0; len(codes) < count && attempts < maxAttempts; attempts++ {
		c, err := g.Generate()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}

	if len(codes) < count {
		return nil, fmt.Errorf("%w: only %d of %d codes after %d attempts",
			apperrors.ErrCodeGenerationFailed, len(codes), count, maxAttempts)
	}
	return codes, nil
}

// CollisionProbability estimates, via the birthday approximation, the chance
// that n generated codes contain at least one duplicate. The result is
// clamped to [0,1] and is 0 for n <= 1.
func CollisionProbability(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	p := 1 - math.Exp(-(fn*(fn-1))/(2*keyspace))
	return math.Max(0, math.Min(1, p))
}
