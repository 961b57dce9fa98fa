// Package archive saves the rendered HTML of failed pages as Markdown so a
// run's failure entries can be inspected after the fact.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// Archiver converts page documents to Markdown files in a directory
type Archiver struct {
	dir       string
	converter *md.Converter
}

// New creates an Archiver writing into dir, creating it if needed
func New(dir string) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Archiver{dir: dir, converter: converter}, nil
}

// SavePage writes the document's cleaned content as page-NNN.md
func (a *Archiver) SavePage(page int, doc *goquery.Document) error {
	cleaned, err := cleanDocument(doc)
	if err != nil {
		return err
	}
	mdStr, err := a.converter.ConvertString(cleaned)
	if err != nil {
		return fmt.Errorf("failed to convert page to markdown: %w", err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("page-%03d.md", page))
	if err := os.WriteFile(path, []byte(mdStr), 0644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	log.Debug().Int("page", page).Str("path", path).Msg("Archived failed page")
	return nil
}

// cleanDocument strips non-content elements and noisy attributes so the
// Markdown stays readable
func cleanDocument(doc *goquery.Document) (string, error) {
	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var keep []html.Attribute
		for _, attr := range node.Attr {
			switch node.Data {
			case "a":
				if attr.Key == "href" || attr.Key == "title" {
					keep = append(keep, attr)
				}
			case "img":
				if attr.Key == "src" || attr.Key == "alt" {
					keep = append(keep, attr)
				}
			}
		}
		node.Attr = keep
	})

	htmlStr, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}
