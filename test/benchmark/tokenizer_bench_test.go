package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/searchlite/searchlite/internal/indexer/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `Keyword search engines answer queries by consulting an inverted index
        that maps every normalized term to the documents containing it. Text is
        lower-cased and stripped of punctuation before indexing so that queries
        match regardless of formatting. Results are ordered by a per-document
        score, with ties broken deterministically, and a lookup cache keeps
        popular terms cheap until a write invalidates them.`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. These systems normalize text into searchable terms by
        folding case and discarding punctuation, then record each term in an
        inverted index alongside the set of documents that contain it. Caching
        layers reduce latency for repeated lookups while precise invalidation
        keeps cached postings consistent with concurrent writes. Ranking orders
        the matched documents by score so the best results surface first. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := tokenizer.Tokenize(text)
			_ = tokens
		}
	})
}

func BenchmarkNormalize(b *testing.B) {
	words := []string{
		"Running", "SEARCH-ENGINE", "keyword!", "Optimization,",
		"back_link", "Crème", "SERP's", "on-page",
		"metadata.", "ranking",
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, w := range words {
			term := tokenizer.Normalize(w)
			_ = term
		}
	}
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "keyword search content optimization ranking "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				tokens := tokenizer.Tokenize(text)
				_ = tokens
			}
		})
	}
}
