package transport

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultPipePrefix is the application prefix baked into generated pipe
// addresses.
const DefaultPipePrefix = "wireline"

// PipeNameGenerator produces collision-resistant, platform-shaped pipe
// addresses. Each address embeds 128 bits of randomness rendered as 32 hex
// characters, so two calls collide only with negligible probability; a
// collision observed at bind time is a fatal error, not a retry condition.
//
// The zero value uses crypto/rand and DefaultPipePrefix. Rand is injectable
// so tests can generate deterministic addresses.
type PipeNameGenerator struct {
	// Prefix replaces DefaultPipePrefix when non-empty.
	Prefix string
	// Rand supplies the random suffix bytes; nil means crypto/rand.
	Rand io.Reader
}

// Generate returns a fresh pipe address: on Windows a named-pipe path of
// the form \\.\pipe\<prefix>-<32 hex>-sock, elsewhere a socket path inside
// the system temporary directory of the form <prefix>-<32 hex>.sock.
func (g PipeNameGenerator) Generate() (string, error) {
	prefix := g.Prefix
	if prefix == "" {
		prefix = DefaultPipePrefix
	}
	src := g.Rand
	if src == nil {
		src = rand.Reader
	}

	var raw [16]byte
	if _, err := io.ReadFull(src, raw[:]); err != nil {
		return "", fmt.Errorf("generating pipe name: %w", err)
	}
	suffix := hex.EncodeToString(raw[:])

	if runtime.GOOS == "windows" {
		return fmt.Sprintf(`\\.\pipe\%s-%s-sock`, prefix, suffix), nil
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%s.sock", prefix, suffix)), nil
}

// GeneratePipeName returns a fresh address from the default generator.
func GeneratePipeName() (string, error) {
	return PipeNameGenerator{}.Generate()
}
