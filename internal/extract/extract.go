// Package extract pulls plain text out of uploaded syllabus documents.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes = 20 << 20

// Kind is a supported document format.
type Kind string

const (
	KindUnknown Kind = ""
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindHTML    Kind = "html"
	KindText    Kind = "text"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	ErrUnsupported = errors.New("unsupported document type")
	ErrTooLarge    = errors.New("document exceeds upload limit")
	ErrNoText      = errors.New("no text found in document")
)

// Document is an uploaded file.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExtractionError reports why a document could not be read.
type ExtractionError struct {
	Filename string
	Kind     Kind
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("extracting %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("extracting %s (%s): %v", e.Filename, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor converts documents to text.
type Extractor struct {
	maxBytes int64
}

// New creates an Extractor that rejects documents larger than maxBytes.
func New(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{maxBytes: maxBytes}
}

// MaxBytes returns the configured upload limit.
func (x *Extractor) MaxBytes() int64 { return x.maxBytes }

// Detect picks the document kind from its content type, then its extension.
func Detect(doc Document) Kind {
	if mediaType, _, err := mime.ParseMediaType(doc.ContentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return KindPDF
		case docxContentType:
			return KindDOCX
		case "text/html", "application/xhtml+xml":
			return KindHTML
		case "text/plain", "text/markdown":
			return KindText
		}
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".html", ".htm":
		return KindHTML
	case ".txt", ".md", ".markdown":
		return KindText
	}
	return KindUnknown
}

// Extract returns the document's text.
func (x *Extractor) Extract(ctx context.Context, doc Document) (string, error) {
	kind := Detect(doc)
	fail := func(err error) (string, error) {
		return "", &ExtractionError{Filename: doc.Filename, Kind: kind, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if int64(len(doc.Data)) > x.maxBytes {
		return fail(fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, len(doc.Data), x.maxBytes))
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = pdfText(doc.Data)
	case KindDOCX:
		text, err = docxText(doc.Data)
	case KindHTML:
		text, err = htmlText(doc.Data)
	case KindText:
		text = string(doc.Data)
	default:
		err = ErrUnsupported
	}
	if err != nil {
		return fail(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fail(ErrNoText)
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

func htmlText(data []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), &url.URL{Scheme: "file", Path: "/syllabus.html"})
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}

	// Readability gives up on pages without an article-like body; fall back to
	// the bare text.
	stripped := bluemonday.StrictPolicy().SanitizeBytes(data)
	return collapseSpace(html.UnescapeString(string(stripped))), nil
}

func collapseSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
