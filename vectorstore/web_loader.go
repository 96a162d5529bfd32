package vectorstore

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/SaiNageswarS/crag-boot/workflow"
	"golang.org/x/net/html"
)

const minBlockLength = 100

var scriptContentPattern = regexp.MustCompile(`"content"\s*:\s*"([^"]+)"`)

// WebLoader keeps the large text blocks of an HTML page.
type WebLoader struct {
	client *http.Client
}

func NewWebLoader(client *http.Client) *WebLoader {
	return &WebLoader{client: client}
}

func (l *WebLoader) Load(ctx context.Context, src string) ([]workflow.Document, error) {
	body, err := fetch(ctx, l.client, src)
	if err != nil {
		return nil, err
	}

	page, err := ParseHTML(body)
	if err != nil {
		return nil, err
	}

	return []workflow.Document{{
		Content: page.Content,
		Metadata: map[string]string{
			"source":      src,
			"title":       page.Title,
			"description": page.Description,
			"language":    page.Language,
		},
	}}, nil
}

type HTMLPage struct {
	Title       string
	Description string
	Language    string
	Content     string
}

// ParseHTML extracts text blocks longer than 100 characters outside script, style, meta and
// noscript. Pages without such blocks fall back to "content" strings embedded in scripts and
// then to the title.
func ParseHTML(body []byte) (HTMLPage, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return HTMLPage{}, err
	}

	page := HTMLPage{Language: "en"}
	var blocks, scripts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					page.Language = lang
				}
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") {
					page.Description = attr(n, "content")
				}
			}
		case html.TextNode:
			parent := ""
			if n.Parent != nil {
				parent = strings.ToLower(n.Parent.Data)
			}
			switch parent {
			case "script":
				scripts = append(scripts, n.Data)
			case "style", "meta", "noscript":
			default:
				if text := strings.TrimSpace(n.Data); len(text) > minBlockLength {
					blocks = append(blocks, text)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	switch {
	case len(blocks) > 0:
		page.Content = strings.Join(blocks, "\n\n")
	default:
		page.Content = scriptContent(scripts)
		if page.Content == "" {
			page.Content = page.Title
		}
	}

	return page, nil
}

func scriptContent(scripts []string) string {
	for _, script := range scripts {
		matches := scriptContentPattern.FindAllStringSubmatch(script, -1)
		if len(matches) == 0 {
			continue
		}
		contents := make([]string, 0, len(matches))
		for _, m := range matches {
			contents = append(contents, m[1])
		}
		return strings.Join(contents, "\n\n")
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
