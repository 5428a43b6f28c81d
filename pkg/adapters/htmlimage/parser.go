// Package htmlimage finds the representative image of an HTML page.
package htmlimage

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/user/framekit/pkg/ports"
)

// ErrNoImage is returned when a document references no image.
var ErrNoImage = ports.ErrNoImage

// Parser extracts image URLs from HTML documents.
// The og:image meta tag wins over the first <img> element, and icon links
// come last.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// ImageURL returns the absolute URL of the document's image.
func (p *Parser) ImageURL(doc []byte, baseURL string) (string, error) {
	urls, err := p.ImageURLs(doc, baseURL)
	if err != nil {
		return "", err
	}
	return urls[0], nil
}

// ImageURLs returns every image URL in the document, og:image first,
// then <img> sources in document order, then icon links. Duplicates are
// dropped.
func (p *Parser) ImageURLs(doc []byte, baseURL string) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var og, imgs, icons []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Base:
				if href := attr(n, "href"); href != "" {
					if u, err := base.Parse(href); err == nil {
						base = u
					}
				}
			case atom.Meta:
				prop := attr(n, "property")
				if prop == "" {
					prop = attr(n, "name")
				}
				if strings.EqualFold(prop, "og:image") {
					og = append(og, attr(n, "content"))
				}
			case atom.Img:
				imgs = append(imgs, attr(n, "src"))
			case atom.Link:
				for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
					if rel == "icon" {
						icons = append(icons, attr(n, "href"))
						break
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	seen := make(map[string]bool)
	var out []string
	candidates := append(append(og, imgs...), icons...)
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := base.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "data") {
			continue
		}
		abs := u.String()
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoImage
	}
	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

var _ ports.HTMLImageParser = (*Parser)(nil)
