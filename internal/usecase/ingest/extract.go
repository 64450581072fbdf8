package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/duet/internal/domain"
)

// SupportedExtensions lists the upload formats Extract understands.
var SupportedExtensions = []string{".txt", ".md", ".json", ".pdf", ".docx"}

// maxDocxXML bounds the decompressed size of word/document.xml.
const maxDocxXML = 64 << 20

// Extract turns an uploaded file into plain text, choosing the reader by extension.
func Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".txt", ".md":
		return extractText(data)
	case ".json":
		return extractJSON(data)
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%q (supported: %s): %w",
			ext, strings.Join(SupportedExtensions, ", "), domain.ErrUnsupportedFormat)
	}
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", domain.ErrValidation)
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func extractJSON(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}
	return buf.String(), nil
}

// extractPDF reads the text layer. The pdf package panics on some malformed files.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed PDF: %v", domain.ErrValidation, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %v", domain.ErrValidation, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read PDF text: %v", domain.ErrValidation, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// extractDOCX reads the main document part of a WordprocessingML package.
// Paragraphs and breaks become newlines, tabs become tab characters.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open DOCX: %v", domain.ErrValidation, err)
	}
	part, err := zr.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("%w: DOCX has no word/document.xml", domain.ErrValidation)
	}
	defer part.Close()

	text, err := wordText(io.LimitReader(part, maxDocxXML))
	if err != nil {
		return "", fmt.Errorf("%w: read DOCX: %v", domain.ErrValidation, err)
	}
	return text, nil
}

// wordText collects the w:t runs of a document.xml stream.
func wordText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err //nolint:wrapcheck // wrapped by extractDOCX
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
