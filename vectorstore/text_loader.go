package vectorstore

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// TextLoader reads plain text and markdown files as-is. Markdown documents are titled by their
// first heading.
type TextLoader struct {
	client *http.Client
}

func NewTextLoader(client *http.Client) *TextLoader {
	return &TextLoader{client: client}
}

func (l *TextLoader) Load(ctx context.Context, src string) ([]workflow.Document, error) {
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

	ext := extension(src)
	fileType := strings.TrimPrefix(ext, ".")
	if fileType == "" {
		fileType = "txt"
	}

	title := filepath.Base(src)
	format := "text"
	if ext == ".md" || ext == ".markdown" {
		format = "markdown"
		if heading := FirstHeading(data); heading != "" {
			title = heading
		}
	}

	return []workflow.Document{{
		Content: string(data),
		Metadata: map[string]string{
			"source":         source,
			"title":          title,
			"file_type":      fileType,
			"content_format": format,
		},
	}}, nil
}

// FirstHeading returns the text of the first markdown heading, or "".
func FirstHeading(md []byte) string {
	root := goldmark.DefaultParser().Parse(text.NewReader(md))

	var heading string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			heading = strings.TrimSpace(nodeText(h, md))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return heading
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(nodeText(c, src))
	}
	return b.String()
}
