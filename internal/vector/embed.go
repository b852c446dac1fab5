package vector

import (
	"encoding/hex"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Dim is the embedding dimensionality. Feature hashing keeps the vectors
// deterministic: the same diagram always embeds identically, so re-runs
// upsert in place instead of accumulating duplicates.
const Dim = 256

// Embed produces a feature-hashed, L2-normalized embedding of the text.
func Embed(text string) []float32 {
	vec := make([]float32, Dim)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := sum % Dim
		// Second hash bit picks the sign, the usual hashing-trick setup.
		if sum&0x80000000 != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	return normalize(vec)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// DocumentsFromDiagrams builds one document per rendered diagram, embedding
// the full diagram text. IDs derive from the title so re-indexing replaces
// rather than duplicates.
func DocumentsFromDiagrams(diagrams map[string][]string) []Document {
	titles := make([]string, 0, len(diagrams))
	for t := range diagrams {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	docs := make([]Document, 0, len(titles))
	for _, title := range titles {
		content := strings.Join(diagrams[title], "\n")
		docs = append(docs, Document{
			ID:      deterministicID(title),
			Content: content,
			Vector:  Embed(content),
			Metadata: map[string]string{
				"title": title,
			},
		})
	}
	return docs
}

// deterministicID derives a UUID-shaped identifier from the title.
func deterministicID(title string) string {
	h := fnv.New128a()
	h.Write([]byte(title))
	b := h.Sum(nil)
	b[6] = (b[6] & 0x0f) | 0x40 // version 4 shape
	b[8] = (b[8] & 0x3f) | 0x80 // variant 10

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}
