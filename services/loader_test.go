package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/physical-ai/textbook-rag/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// section builds a heading-led markdown section of roughly n characters.
func section(title string, n int) string {
	const sentence = "All work and no play makes a dull robot. "
	body := strings.Repeat(sentence, n/len(sentence)+1)
	return "## " + title + "\n\n" + body[:n]
}

func TestChunkDocument_Bounds(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	doc := strings.Join([]string{
		"Intro paragraph that is long enough to stand on its own as content for the opening of the document, describing what the chapters below will cover in reasonable detail so that it is not a trivial fragment.",
		section("Sensors", 600),
		section("Actuators", 90),
		section("Kinematics", 2600),
		section("Locomotion", 1400),
	}, "\n")

	chunks := loader.chunkDocument(doc, "week1.md")
	if len(chunks) == 0 {
		t.Fatal("expected chunks, got none")
	}

	for i, chunk := range chunks {
		if len(chunk.Text) > MaxChunkSize {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(chunk.Text))
		}
		if len(chunk.Text) < MinChunkSize && i != len(chunks)-1 {
			t.Errorf("non-final chunk %d under min size: %d chars", i, len(chunk.Text))
		}
		if chunk.SourceFile != "week1.md" {
			t.Errorf("chunk %d has wrong source file %q", i, chunk.SourceFile)
		}
		if chunk.Position != i {
			t.Errorf("chunk %d has position %d", i, chunk.Position)
		}
	}
}

func TestChunkDocument_ThreeThousandCharsTwoHeadings(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	doc := section("First Half", 1480) + "\n" + section("Second Half", 1480)
	if len(doc) < 2950 || len(doc) > 3050 {
		t.Fatalf("test document should be ~3000 chars, got %d", len(doc))
	}

	chunks := loader.chunkDocument(doc, "long.md")
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for a 3000-char two-heading file, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > MaxChunkSize {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(chunk.Text))
		}
		if len(chunk.Text) < MinChunkSize && i != len(chunks)-1 {
			t.Errorf("non-final chunk %d under min size: %d chars", i, len(chunk.Text))
		}
	}
}

func TestChunkDocument_StripsFrontmatter(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	doc := "---\ntitle: Week 1\nsidebar_position: 1\n---\n" + section("Content", 400)
	chunks := loader.chunkDocument(doc, "fm.md")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "sidebar_position") {
		t.Error("frontmatter leaked into chunk text")
	}
	if !strings.HasPrefix(chunks[0].Text, "## Content") {
		t.Errorf("chunk should start at the heading, got %q", chunks[0].Text[:30])
	}
}

func TestChunkDocument_ShortFileKeptWhole(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	chunks := loader.chunkDocument("A very short note.", "short.md")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A very short note." {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
}

func TestChunkDocument_EmptyAfterFrontmatter(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	if chunks := loader.chunkDocument("---\ntitle: Empty\n---\n   \n", "empty.md"); len(chunks) != 0 {
		t.Fatalf("expected no chunks for an empty document, got %d", len(chunks))
	}
}

func TestChunkDocument_MergesSmallSections(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	doc := section("A", 150) + "\n" + section("B", 150) + "\n" + section("C", 150)
	chunks := loader.chunkDocument(doc, "small.md")
	if len(chunks) != 1 {
		t.Fatalf("expected small sections to merge into 1 chunk, got %d", len(chunks))
	}
	for _, heading := range []string{"## A", "## B", "## C"} {
		if !strings.Contains(chunks[0].Text, heading) {
			t.Errorf("merged chunk missing section %q", heading)
		}
	}
}

func TestChunkDocument_ShortSectionBetweenLargeOnes(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())

	// A tiny aside wedged between two near-max sections cannot merge into
	// either neighbor without exceeding the maximum.
	doc := section("Perception", 1960) + "\n" + section("Aside", 80) + "\n" + section("Planning", 1930)
	chunks := loader.chunkDocument(doc, "mid.md")
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk.Text) > MaxChunkSize {
			t.Errorf("chunk %d exceeds max size: %d chars", i, len(chunk.Text))
		}
		if len(chunk.Text) < MinChunkSize && i != len(chunks)-1 {
			t.Errorf("non-final chunk %d under min size: %d chars", i, len(chunk.Text))
		}
	}

	var all strings.Builder
	for _, chunk := range chunks {
		all.WriteString(chunk.Text)
	}
	if !strings.Contains(all.String(), "## Aside") {
		t.Error("rebalancing dropped the short section's content")
	}
}

func TestLoadAll_WalksAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("week1.md", section("Sensors", 900)+"\n"+section("Actuators", 900))
	write("week2.md", section("Gazebo", 500))
	write("notes.txt", strings.Repeat("plain text notes ", 30))
	write("image.png", "not markdown")

	loader := NewDocumentLoader(dir, testLogger())

	first, skipped, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected 0 skipped files, got %d", skipped)
	}
	if len(first) == 0 {
		t.Fatal("expected chunks from the content directory")
	}
	for _, chunk := range first {
		if strings.HasSuffix(chunk.SourceFile, ".png") {
			t.Errorf("unsupported file was chunked: %s", chunk.SourceFile)
		}
	}

	second, _, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("second LoadAll failed: %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("re-run produced %d chunks, first run produced %d", len(second), len(first))
	}

	perFileFirst := countBySource(first)
	perFileSecond := countBySource(second)
	for file, n := range perFileFirst {
		if perFileSecond[file] != n {
			t.Errorf("file %s: %d chunks on first run, %d on second", file, n, perFileSecond[file])
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	loader := NewDocumentLoader(t.TempDir(), testLogger())
	if _, err := loader.LoadFile(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"no headings", "just a paragraph\n\nand another", 1},
		{"two h2", "intro\n## one\ntext\n## two\ntext", 3},
		{"h3 boundary", "## one\ntext\n### sub\nmore", 2},
		{"h1 not a boundary", "# title\ntext continues", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSections(tt.body)
			if len(got) != tt.want {
				t.Errorf("got %d sections, want %d: %q", len(got), tt.want, got)
			}
		})
	}
}

func countBySource(chunks []models.DocumentChunk) map[string]int {
	counts := make(map[string]int)
	for _, chunk := range chunks {
		counts[chunk.SourceFile]++
	}
	return counts
}
