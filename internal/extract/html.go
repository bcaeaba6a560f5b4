package extract

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

var (
	productHrefPattern = regexp.MustCompile(`/product/([A-Za-z0-9_-]+)`)
	// Content ids look like UP0006-PPSA27360_00-26STANDARDBUNDLE
	contentIDPattern = regexp.MustCompile(`\b[A-Z]{2}\d{4}-[A-Z]{4}\d{5}_\d{2}-[A-Z0-9]{16}\b`)
)

// ExtractFromHTML reads a product page. Every embedded JSON script is run
// through the node search and the best candidate wins; og:image fills a
// missing image. A page with no JSON candidate falls back to its og:title,
// og:image and product:price meta tags; og:title alone is not enough.
func ExtractFromHTML(r io.Reader) (ProductSummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ProductSummary{}, apperrors.NewParsing("extract", "failed to parse HTML", err)
	}

	var best Candidate
	found := false
	for _, tree := range embeddedJSON(doc) {
		c, ok := FindProductNode(tree)
		if ok && (!found || c.Score > best.Score) {
			best = c
			found = true
		}
	}
	if !found {
		return fromMeta(doc)
	}

	summary := fromCandidate(best)
	if summary.ImageURL == "" {
		summary.ImageURL = metaContent(doc, "og:image")
	}
	return summary, nil
}

func fromMeta(doc *goquery.Document) (ProductSummary, error) {
	summary := ProductSummary{
		Name:     metaContent(doc, "og:title"),
		ImageURL: metaContent(doc, "og:image"),
		Price: PriceInfo{
			Current:  metaContent(doc, "product:price:amount"),
			Currency: metaContent(doc, "product:price:currency"),
		},
	}
	if utf8.RuneCountInString(summary.Name) <= 2 || (summary.ImageURL == "" && summary.Price.Current == "") {
		return ProductSummary{}, ErrNoProductData
	}
	return summary, nil
}

// embeddedJSON decodes __NEXT_DATA__ and every application/json script
func embeddedJSON(doc *goquery.Document) []any {
	var trees []any
	doc.Find(`script#__NEXT_DATA__, script[type="application/json"], script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		var tree any
		if err := json.Unmarshal([]byte(text), &tree); err == nil {
			trees = append(trees, tree)
		}
	})
	return trees
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(`meta[property="` + property + `"], meta[name="` + property + `"]`).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// ExtractCategoryProductIDs lists product ids on a category page: product
// links first, then content ids inside embedded JSON, de-duplicated in
// document order
func ExtractCategoryProductIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.NewParsing("extract", "failed to parse HTML", err)
	}

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	doc.Find(`a[href*="/product/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if m := productHrefPattern.FindStringSubmatch(href); m != nil {
			add(m[1])
		}
	})

	doc.Find(`script#__NEXT_DATA__, script[type="application/json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, id := range contentIDPattern.FindAllString(s.Text(), -1) {
			add(id)
		}
	})

	return ids, nil
}
