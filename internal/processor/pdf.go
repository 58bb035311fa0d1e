package processor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/ledongthuc/pdf"
)

const (
	// Maximum size for a single chunk
	MAX_CHUNK_SIZE = 2000
	// Minimum size for a chunk
	MIN_CHUNK_SIZE = 100
)

// PDFProcessor extracts page text from PDF files and splits it into
// overlapping chunks that keep their page number for citations.
type PDFProcessor struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewPDFProcessor creates a new PDF processor.
func NewPDFProcessor(chunkSize, chunkOverlap int) *PDFProcessor {
	if chunkSize <= 0 || chunkSize > MAX_CHUNK_SIZE {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
	}
	return &PDFProcessor{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// PageText is the extracted text of one PDF page.
type PageText struct {
	Page int
	Text string
}

// ExtractPages extracts text page by page so chunks can cite accurate page
// numbers.
func (p *PDFProcessor) ExtractPages(filePath string) ([]PageText, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		text = normalizeWhitespace(text)
		if text == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", filePath)
	}
	return pages, nil
}

// ProcessPDF extracts a PDF and returns page-tracked chunks for a document.
func (p *PDFProcessor) ProcessPDF(ctx context.Context, filePath, docID string) ([]models.Chunk, error) {
	pages, err := p.ExtractPages(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	var chunks []models.Chunk
	id := 0
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, part := range p.chunkText(page.Text) {
			chunks = append(chunks, models.Chunk{
				ID:         id,
				DocumentID: docID,
				Content:    part,
				Page:       page.Page,
			})
			id++
		}
	}

	return chunks, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// chunkText splits text into overlapping chunks at word boundaries. Pieces
// below the minimum size are merged into the previous chunk.
func (p *PDFProcessor) chunkText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunk := strings.Join(current, " ")
		if len(chunk) < MIN_CHUNK_SIZE && len(chunks) > 0 {
			chunks[len(chunks)-1] += " " + chunk
		} else {
			chunks = append(chunks, chunk)
		}

		// Carry overlap words into the next chunk.
		overlap := 0
		var carried []string
		for i := len(current) - 1; i >= 0 && overlap < p.ChunkOverlap; i-- {
			overlap += len(current[i]) + 1
			carried = append([]string{current[i]}, carried...)
		}
		current = carried
		currentLen = overlap
	}

	for _, word := range words {
		current = append(current, word)
		currentLen += len(word) + 1
		if currentLen >= p.ChunkSize {
			flush()
		}
	}

	if currentLen > 0 {
		chunk := strings.Join(current, " ")
		// The trailing piece may be pure overlap already emitted.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], chunk) {
			if len(chunk) < MIN_CHUNK_SIZE && len(chunks) > 0 {
				chunks[len(chunks)-1] += " " + chunk
			} else {
				chunks = append(chunks, chunk)
			}
		}
	}

	return chunks
}
