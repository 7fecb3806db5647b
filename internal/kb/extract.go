package kb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pdflib "github.com/dslipak/pdf"
	"golang.org/x/net/html"
)

// extractText turns one guide document into a single normalized text
// stream. Unsupported extensions return "", nil and contribute nothing.
func extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return normalizeWhitespace(sanitizeUTF8(string(data))), nil
	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return normalizeWhitespace(sanitizeUTF8(extractHTMLText(string(data)))), nil
	case ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			return "", err
		}
		return normalizeWhitespace(sanitizeUTF8(text)), nil
	default:
		return "", nil
	}
}

// pdfStrategy is one way of pulling text out of a PDF. Strategies are tried
// in order; the first one that yields usable text wins.
type pdfStrategy struct {
	name    string
	extract func(r *pdflib.Reader) (string, error)
}

var pdfStrategies = []pdfStrategy{
	{name: "per-page", extract: extractPDFPerPage},
	{name: "plain-text", extract: extractPDFPlainText},
}

func extractPDFText(path string) (text string, err error) {
	// The pdf library panics on some malformed files; a failed strategy
	// must not take the whole build down.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf extraction panicked: %v", r)
		}
	}()

	r, err := pdflib.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var lastErr error
	for _, s := range pdfStrategies {
		text, err := tryPDFStrategy(s, r)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", s.name, err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("no pdf strategy produced text")
}

func tryPDFStrategy(s pdfStrategy, r *pdflib.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panicked: %v", rec)
		}
	}()
	return s.extract(r)
}

// extractPDFPerPage flattens the document page by page.
func extractPDFPerPage(r *pdflib.Reader) (string, error) {
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		b.WriteString(" ")
	}
	return b.String(), nil
}

// extractPDFPlainText uses the whole-document reader.
func extractPDFPlainText(r *pdflib.Reader) (string, error) {
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractHTMLText walks the DOM collecting text nodes, skipping script,
// style and noscript subtrees.
func extractHTMLText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}
		if n.Type == html.TextNode && !skip {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)
	return b.String()
}

// normalizeWhitespace collapses all whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeUTF8 drops invalid UTF-8 bytes.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
