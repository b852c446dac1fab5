// Package incremental skips regeneration when the source tree has not
// changed since the last run, using content-addressable fingerprints.
package incremental

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/efebarandurmaz/blueprint/internal/plugins"
)

// Fingerprint is the content hash of one source file.
type Fingerprint struct {
	FileHash string `json:"file_hash"`
}

// ComputeFingerprints hashes every source file.
func ComputeFingerprints(files []plugins.SourceFile) map[string]*Fingerprint {
	result := make(map[string]*Fingerprint, len(files))
	for _, f := range files {
		result[f.Path] = &Fingerprint{FileHash: hashBytes(f.Content)}
	}
	return result
}

// TreeHash combines all file fingerprints into a single hash. Diagrams
// depend on the whole program (entry points are a global property), so any
// file change invalidates the previous run.
func TreeHash(fps map[string]*Fingerprint) string {
	paths := make([]string, 0, len(fps))
	for p := range fps {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, p+":"+fps[p].FileHash)
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func hashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
