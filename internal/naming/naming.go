// Package naming decides what an uploaded image is called and whether it is
// accepted at all. Both upload paths go through it so that every stored
// object carries the same identifier format and the same type/size policy.
package naming

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"
)

// MaxImageSize is the upload ceiling in bytes (5 MiB).
const MaxImageSize int64 = 5 << 20

// PostsPrefix namespaces presigned object keys in the external store.
const PostsPrefix = "posts/"

const (
	tokenLength        = 7
	maxExtensionLength = 16
	tokenAlphabet      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	// ErrUnsupportedMediaType is returned for content types outside the allow-list.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrPayloadTooLarge is returned when a known size exceeds MaxImageSize.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidExtension is returned for extensions that are not safe path segments.
	ErrInvalidExtension = errors.New("invalid file extension")
)

// allowedTypes maps each accepted MIME type to its canonical extension.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var (
	extensionRegex  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	identifierRegex = regexp.MustCompile(`^[0-9]+-[0-9a-z]{7}\.[A-Za-z0-9]{1,16}$`)
)

// Validate checks contentType against the allow-list and, when size is known
// (size >= 0), against MaxImageSize. Pass a negative size when the body is
// streamed and its length is not known up front.
func Validate(contentType string, size int64) error {
	if _, ok := allowedTypes[normalizeType(contentType)]; !ok {
		return ErrUnsupportedMediaType
	}
	if size > MaxImageSize {
		return ErrPayloadTooLarge
	}
	return nil
}

// DefaultExtension returns the canonical extension for an allowed content
// type, or "" when the type is not allowed.
func DefaultExtension(contentType string) string {
	return allowedTypes[normalizeType(contentType)]
}

// CheckExtension rejects anything that is not a short run of ASCII letters
// and digits. Path separators, dots, NUL and control characters all fail.
func CheckExtension(ext string) error {
	if ext == "" || len(ext) > maxExtensionLength || !extensionRegex.MatchString(ext) {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return nil
}

// ExtensionFromFilename returns the final dot-segment of the base name of
// filename, without the dot. It returns "" when there is none.
func ExtensionFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	i := strings.LastIndexByte(base, '.')
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}

// IsIdentifier reports whether s has the shape of an issued identifier.
func IsIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// IsObjectPath reports whether s is an identifier, optionally under PostsPrefix.
func IsObjectPath(s string) bool {
	return IsIdentifier(strings.TrimPrefix(s, PostsPrefix))
}

func normalizeType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Generator produces identifiers of the form
// <millisecond-epoch>-<7 char base-36 token>.<extension>.
// The zero value is not usable; use NewGenerator.
type Generator struct {
	now func() time.Time

	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a Generator reading the wall clock and crypto/rand.
func NewGenerator() *Generator {
	return &Generator{now: time.Now, entropy: rand.Reader}
}

// NewGeneratorWith returns a Generator with a fixed clock and entropy source.
func NewGeneratorWith(now func() time.Time, entropy io.Reader) *Generator {
	return &Generator{now: now, entropy: entropy}
}

// Generate builds a fresh identifier for ext. Uniqueness is probabilistic:
// no lookup against existing objects is made here.
func (g *Generator) Generate(ext string) (string, error) {
	if err := CheckExtension(ext); err != nil {
		return "", err
	}
	token, err := g.token()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return fmt.Sprintf("%d-%s.%s", g.now().UnixMilli(), token, ext), nil
}

func (g *Generator) token() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	max := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, tokenLength)
	for i := range b {
		n, err := rand.Int(g.entropy, max)
		if err != nil {
			return "", err
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}

var defaultGenerator = NewGenerator()

// GenerateIdentifier builds an identifier for ext with the default generator.
func GenerateIdentifier(ext string) (string, error) {
	return defaultGenerator.Generate(ext)
}
