package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resumematch-backend/internal/shared/storage/object"
)

// Extractor pulls plain text out of a stored document.
type Extractor interface {
	ExtractText(ctx context.Context, storageKey, fileName string) (string, error)
}

// ValidationError marks a document the user gave us that cannot be processed:
// missing, oversized, encrypted, empty, or not a supported format.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

// IsValidationError reports whether err is a document validation failure.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Service extracts text from objects in the store.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
type Service struct {
	Store    object.ObjectStore
	MaxBytes int64
}

// ExtractText reads the stored document and returns its plain text. Empty
// extracted text is a validation failure, same as an unreadable document.
func (s *Service) ExtractText(ctx context.Context, storageKey, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return "", ValidationError{Reason: fmt.Sprintf("file not found or unreadable: %v", err)}
	}
	defer body.Close()

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 10 * 1024 * 1024
	}
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return "", fmt.Errorf("read document key=%s: %w", storageKey, err)
	}
	if int64(len(raw)) > limit {
		return "", ValidationError{Reason: fmt.Sprintf("file size exceeds %dMB limit", limit/1024/1024)}
	}
	if len(raw) == 0 {
		return "", ValidationError{Reason: "document is empty"}
	}

	var text string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		text, err = extractPDF(raw)
	case ".docx":
		text, err = extractDOCX(raw)
	case ".txt":
		text = string(raw)
	default:
		return "", ValidationError{Reason: fmt.Sprintf("unsupported file type: %s", filepath.Ext(fileName))}
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ValidationError{Reason: "no text content found in document"}
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return "", ValidationError{Reason: "document is password protected"}
		}
		return "", ValidationError{Reason: fmt.Sprintf("invalid PDF file: %v", err)}
	}
	if pdfReader.NumPage() == 0 {
		return "", ValidationError{Reason: "PDF file has no pages"}
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", ValidationError{Reason: fmt.Sprintf("failed to extract text from PDF: %v", err)}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	readerAt := bytes.NewReader(data)
	doc, err := docx.ReadDocxFromMemory(readerAt, int64(len(data)))
	if err != nil {
		return "", ValidationError{Reason: fmt.Sprintf("invalid DOCX file: %v", err)}
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML flattens the document.xml body to plain text, keeping paragraph
// breaks as newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

var _ Extractor = (*Service)(nil)
