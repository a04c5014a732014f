package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kart-io/paperqa/internal/pkg/textutil"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// Extract returns the plain text of a file, chosen by the key's extension.
func Extract(key string, data []byte) (string, error) {
	var text string
	switch ext := strings.ToLower(path.Ext(key)); ext {
	case ".pdf":
		t, err := extractPDF(data)
		if err != nil {
			return "", errno.ErrIngestExtract.WithCause(err)
		}
		text = t
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", errno.ErrIngestExtract.WithMessage("file is not valid UTF-8")
		}
		text = string(data)
	default:
		return "", errno.ErrIngestExtract.WithMessagef("unsupported file type %q", ext)
	}

	text = textutil.NormalizeSpace(text)
	if text == "" {
		return "", errno.ErrIngestExtract.WithMessage("no text found")
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
