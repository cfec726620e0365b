// Package htmlx provides structure-tolerant HTML extraction. A caller
// supplies an ordered list of selector strategies; strategies are tried in
// sequence and the first one yielding any items wins, which keeps scrapers
// working across layout variants of the same site.
package htmlx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy names one way of locating text items in a document.
type Strategy struct {
	// Name identifies the strategy in logs.
	Name string
	// ItemSelector matches one element per item.
	ItemSelector string
	// TextSelector, if set, narrows each item to a child before taking its
	// text. Empty means the item's own text.
	TextSelector string
}

// Parse builds a goquery document from raw HTML.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ExtractFirst applies strategies in order and returns the items from the
// first strategy that matches anything, along with that strategy's name.
// An empty result with empty name means no strategy matched.
func ExtractFirst(doc *goquery.Document, strategies []Strategy) ([]string, string) {
	for _, s := range strategies {
		items := extract(doc, s)
		if len(items) > 0 {
			return items, s.Name
		}
	}
	return nil, ""
}

func extract(doc *goquery.Document, s Strategy) []string {
	var items []string
	doc.Find(s.ItemSelector).Each(func(_ int, sel *goquery.Selection) {
		target := sel
		if s.TextSelector != "" {
			target = sel.Find(s.TextSelector)
		}
		text := CollapseWhitespace(target.Text())
		if text != "" {
			items = append(items, text)
		}
	})
	return items
}

// CollapseWhitespace trims the text and folds internal whitespace runs,
// including newlines from block-level markup, into single spaces.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
