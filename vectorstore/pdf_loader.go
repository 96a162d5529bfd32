package vectorstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/ledongthuc/pdf"
)

// PDFLoader reads a local or remote PDF into a single plain-text document.
type PDFLoader struct {
	client *http.Client
}

func NewPDFLoader(client *http.Client) *PDFLoader {
	return &PDFLoader{client: client}
}

func (l *PDFLoader) Load(ctx context.Context, src string) ([]workflow.Document, error) {
	var data []byte
	var err error
	source := src

	if isURL(src) {
		data, err = fetch(ctx, l.client, src)
	} else {
		source, _ = filepath.Abs(src)
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, err
	}

	text, err := ExtractPDFText(data)
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", src, err)
	}

	return []workflow.Document{{
		Content: text,
		Metadata: map[string]string{
			"source":         source,
			"title":          filepath.Base(src),
			"file_type":      "pdf",
			"content_format": "text",
		},
	}}, nil
}

func ExtractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
