package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/physical-ai/textbook-rag/models"
)

// Chunk size bounds in characters. Sections are merged until they would
// exceed MaxChunkSize and oversized sections are split down to it; only the
// final chunk of a short file may fall under MinChunkSize.
const (
	MinChunkSize = 200
	MaxChunkSize = 2000
)

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n.*?\r?\n---\r?\n`)
	headingRe     = regexp.MustCompile(`\n#{2,3}[ \t]`)
)

// DocumentLoader turns a tree of markdown files into ordered DocumentChunks
// (without embeddings). One bad file never aborts a pass; it is skipped with
// a logged warning.
type DocumentLoader struct {
	root     string
	splitter textsplitter.RecursiveCharacter
	log      *logrus.Logger
}

// NewDocumentLoader creates a loader rooted at the content directory.
func NewDocumentLoader(root string, log *logrus.Logger) *DocumentLoader {
	return &DocumentLoader{
		root: root,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(MaxChunkSize),
			textsplitter.WithChunkOverlap(0),
		),
		log: log,
	}
}

// LoadAll walks the content directory and chunks every supported file.
// It returns the chunks in file-walk order plus the number of skipped files.
func (l *DocumentLoader) LoadAll() ([]models.DocumentChunk, int, error) {
	var chunks []models.DocumentChunk
	skipped := 0

	err := filepath.Walk(l.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			l.log.WithError(err).WithField("path", path).Warn("skipping unreadable path")
			skipped++
			return nil
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		fileChunks, err := l.LoadFile(path)
		if err != nil {
			l.log.WithError(err).WithField("file", path).Warn("skipping unreadable file")
			skipped++
			return nil
		}
		chunks = append(chunks, fileChunks...)
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("walking content directory %s: %w", l.root, err)
	}
	return chunks, skipped, nil
}

// LoadFile reads and chunks a single file.
func (l *DocumentLoader) LoadFile(path string) ([]models.DocumentChunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.chunkDocument(string(content), path), nil
}

// chunkDocument splits one document into chunks on heading boundaries,
// merging small sections and splitting oversized ones.
func (l *DocumentLoader) chunkDocument(content, sourceFile string) []models.DocumentChunk {
	body := strings.TrimSpace(frontmatterRe.ReplaceAllString(content, ""))
	if body == "" {
		return nil
	}

	var texts []string
	current := ""
	flush := func() {
		if current != "" {
			texts = append(texts, current)
			current = ""
		}
	}

	for _, section := range splitSections(body) {
		pieces := []string{section}
		if len(section) > MaxChunkSize {
			pieces = l.splitOversized(section)
		}
		for _, piece := range pieces {
			switch {
			case current == "":
				current = piece
			case len(current)+len(piece)+2 > MaxChunkSize:
				flush()
				current = piece
			default:
				current += "\n\n" + piece
			}
		}
	}

	flush()
	texts = mergeUndersized(texts)

	chunks := make([]models.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, models.DocumentChunk{
			ID:         uuid.NewString(),
			Text:       text,
			SourceFile: sourceFile,
			Position:   i,
		})
	}
	return chunks
}

// mergeUndersized folds chunks shorter than MinChunkSize into a neighbor when
// the merge stays within MaxChunkSize, and otherwise rebalances with one so
// that no interior chunk stays under the minimum. A short lone chunk (short
// file) is kept as is.
func mergeUndersized(texts []string) []string {
	out := make([]string, 0, len(texts))
	for i := 0; i < len(texts); i++ {
		t := texts[i]
		if len(t) >= MinChunkSize {
			out = append(out, t)
			continue
		}
		switch {
		case i+1 < len(texts) && len(t)+len(texts[i+1])+2 <= MaxChunkSize:
			texts[i+1] = t + "\n\n" + texts[i+1]
		case len(out) > 0 && len(out[len(out)-1])+len(t)+2 <= MaxChunkSize:
			out[len(out)-1] += "\n\n" + t
		case i+1 < len(texts):
			first, second := rebalance(t, texts[i+1])
			out = append(out, first)
			texts[i+1] = second
		case len(out) > 0:
			first, second := rebalance(out[len(out)-1], t)
			out[len(out)-1] = first
			out = append(out, second)
		default:
			out = append(out, t)
		}
	}
	return out
}

// rebalance joins two texts whose plain merge would exceed MaxChunkSize and
// splits the result near the midpoint on a whitespace boundary. Callers only
// reach it with a combined length in (MaxChunkSize, MaxChunkSize+MinChunkSize),
// so both halves land within the chunk bounds.
func rebalance(a, b string) (string, string) {
	combined := a + "\n\n" + b
	mid := len(combined) / 2

	cut := strings.LastIndexByte(combined[:mid], '\n')
	if cut < MinChunkSize {
		cut = strings.LastIndexByte(combined[:mid], ' ')
	}
	if cut < MinChunkSize {
		for mid > 0 && !utf8.RuneStart(combined[mid]) {
			mid--
		}
		return combined[:mid], combined[mid:]
	}
	return combined[:cut], combined[cut+1:]
}

// splitOversized cuts a section that exceeds MaxChunkSize into pieces that fit.
func (l *DocumentLoader) splitOversized(section string) []string {
	pieces, err := l.splitter.SplitText(section)
	if err != nil || len(pieces) == 0 {
		// Degenerate input; fall back to hard slicing.
		var out []string
		for len(section) > MaxChunkSize {
			out = append(out, section[:MaxChunkSize])
			section = section[MaxChunkSize:]
		}
		if section != "" {
			out = append(out, section)
		}
		return out
	}
	return pieces
}

// splitSections breaks a document at H2/H3 heading boundaries so each heading
// stays attached to the content below it.
func splitSections(body string) []string {
	bounds := headingRe.FindAllStringIndex(body, -1)
	var sections []string
	prev := 0
	for _, b := range bounds {
		// b[0] is the newline before the heading; the heading starts at b[0]+1.
		if s := strings.TrimSpace(body[prev : b[0]+1]); s != "" {
			sections = append(sections, s)
		}
		prev = b[0] + 1
	}
	if s := strings.TrimSpace(body[prev:]); s != "" {
		sections = append(sections, s)
	}
	return sections
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return true
	default:
		return false
	}
}
