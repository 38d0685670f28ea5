// Package pdftext pulls plain text out of uploaded study material.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document yields no readable text, e.g. a
// scanned PDF without a text layer.
var ErrNoText = errors.New("no readable text in document")

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Extract returns the text of a document. PDFs are parsed; plain-text
// files (.txt, .md or anything that is valid UTF-8) are passed through.
func Extract(name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch {
	case IsPDF(data):
		text, err = extractPDF(data)
	case isPlainText(name, data):
		text = string(data)
	default:
		return "", fmt.Errorf("%s: unsupported file type", name)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	text = collapseWhitespace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNoText)
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

func isPlainText(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return utf8.Valid(data) && !bytes.ContainsRune(data, 0)
}

// collapseWhitespace squeezes runs of blanks on each line and drops empty
// lines, keeping line structure so topic lists survive.
func collapseWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
