package responsive

import (
	"strings"

	"emperror.dev/errors"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseFragment parses content as the inside of a <body>, so elements such
// as <style> or <meta> stay where they were written.
func parseFragment(content string) (*goquery.Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse content")
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// renderFragment writes every top level node of a parsed fragment back out.
func renderFragment(doc *goquery.Document) (string, error) {
	var b strings.Builder
	for _, root := range doc.Nodes {
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if err := html.Render(&b, n); err != nil {
				return "", errors.Wrap(err, "failed to render content")
			}
		}
	}
	return b.String(), nil
}

// imageSources lists the distinct src values of <img> tags in document order.
func imageSources(doc *goquery.Document) []string {
	seen := map[string]bool{}
	var sources []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		sources = append(sources, src)
	})
	return sources
}

// contentSizes returns the data-jimage sizes of the first <img> showing src.
func contentSizes(doc *goquery.Document, src string) []string {
	var sizes []string
	doc.Find("img[data-jimage]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr("src"); strings.TrimSpace(v) != src {
			return true
		}
		list, _ := s.Attr("data-jimage")
		sizes = uniqueSizes(list)
		return false
	})
	return sizes
}

// ImageSources lists the distinct local image sources referenced by content.
func ImageSources(content string) ([]string, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return nil, err
	}
	return imageSources(doc), nil
}

// ContentSizes returns the custom sizes set on the image src through its
// data-jimage attribute, or nil when there are none.
func ContentSizes(content, src string) ([]string, error) {
	doc, err := parseFragment(content)
	if err != nil {
		return nil, err
	}
	return contentSizes(doc, src), nil
}
