package vectorstore

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/SaiNageswarS/go-collection-boot/ds"
)

type SourceKind string

const (
	SourceWeb      SourceKind = "web"
	SourcePDF      SourceKind = "pdf"
	SourceText     SourceKind = "text"
	SourceMarkdown SourceKind = "markdown"
)

// ReadSources reads one source per line. Blank lines and lines starting with '#' are skipped,
// duplicates keep their first position.
func ReadSources(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	return DedupeSources(lines), nil
}

func DedupeSources(lines []string) []string {
	seen := ds.NewSet[string]()
	sources := make([]string, 0, len(lines))
	for _, line := range lines {
		src := strings.Trim(strings.TrimSpace(line), `"`)
		if src == "" || strings.HasPrefix(src, "#") || seen.Contains(src) {
			continue
		}
		seen.Add(src)
		sources = append(sources, src)
	}
	return sources
}

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// extension returns the lower-cased extension of a path or of a URL's path.
func extension(src string) string {
	p := src
	if isURL(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	return strings.ToLower(path.Ext(p))
}

// Classify picks a loader for src. A URL counts as a PDF when it ends in .pdf, carries type=pdf,
// or a HEAD request reports a PDF body.
func Classify(ctx context.Context, client *http.Client, src string) SourceKind {
	if strings.HasSuffix(strings.ToLower(src), ".pdf") || extension(src) == ".pdf" {
		return SourcePDF
	}

	switch extension(src) {
	case ".md", ".markdown":
		return SourceMarkdown
	case ".txt":
		return SourceText
	}

	if !isURL(src) {
		return SourceText
	}

	if u, err := url.Parse(src); err == nil && strings.EqualFold(u.Query().Get("type"), "pdf") {
		return SourcePDF
	}

	if headReportsPDF(ctx, client, src) {
		return SourcePDF
	}
	return SourceWeb
}

func headReportsPDF(ctx context.Context, client *http.Client, src string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, src, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	disposition := strings.ToLower(resp.Header.Get("Content-Disposition"))
	return strings.Contains(contentType, "application/pdf") ||
		(strings.Contains(disposition, "filename") && strings.Contains(disposition, ".pdf"))
}
