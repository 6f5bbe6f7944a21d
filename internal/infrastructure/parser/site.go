package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/scanner"
)

const minBodyLen = 20

// profile lists, per field, the selectors tried in order for one publisher.
type profile struct {
	publisher     string
	title         []string
	titleMeta     []string
	content       []string
	reporter      []string
	reporterBlock string
	publishedMeta []string
	publishedText []string
	image         []string
	imageMeta     []string
	imageHost     string
}

// SiteExtractor is a publisher adapter driven by a selector profile.
type SiteExtractor struct {
	profile profile
	pages   pageClient
}

var _ scanner.Extractor = (*SiteExtractor)(nil)

func newSiteExtractor(p profile, client *http.Client, userAgent string) *SiteExtractor {
	return &SiteExtractor{profile: p, pages: newPageClient(client, userAgent)}
}

// Publisher identifies the adapter inside the registry.
func (s *SiteExtractor) Publisher() string {
	return s.profile.publisher
}

// ExtractArticle downloads the page and extracts a RawArticle from it.
func (s *SiteExtractor) ExtractArticle(ctx context.Context, pageURL string) (domain.RawArticle, error) {
	doc, err := s.pages.fetchDocument(ctx, pageURL)
	if err != nil {
		return domain.RawArticle{}, fmt.Errorf("%s %s: %w", s.profile.publisher, pageURL, err)
	}
	return s.profile.extract(doc, pageURL)
}

func (p profile) extract(doc *goquery.Document, pageURL string) (domain.RawArticle, error) {
	title := firstText(doc.Selection, p.title...)
	if title == "" {
		title = firstAttr(doc.Selection, "content", p.titleMeta...)
	}
	if title == "" {
		return domain.RawArticle{}, fmt.Errorf("%s %s: title not found", p.publisher, pageURL)
	}

	body := p.body(doc)
	if body == "" {
		return domain.RawArticle{}, fmt.Errorf("%s %s: body not found", p.publisher, pageURL)
	}

	return domain.RawArticle{
		Title:         title,
		URL:           pageURL,
		Body:          body,
		ImageURL:      p.imageURL(doc),
		PublishedTime: p.publishedTime(doc),
		ReporterName:  p.reporterName(doc),
		Publisher:     p.publisher,
	}, nil
}

func (p profile) body(doc *goquery.Document) string {
	for _, sel := range p.content {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		node = node.Clone()
		node.Find("script, style").Remove()
		text := collapseSpaces(node.Text())
		if utf8.RuneCountInString(text) > minBodyLen {
			return text
		}
	}
	return ""
}

func (p profile) reporterName(doc *goquery.Document) string {
	if name := firstText(doc.Selection, p.reporter...); name != "" {
		return name
	}
	if p.reporterBlock == "" {
		return ""
	}
	text := collapseSpaces(doc.Find(p.reporterBlock).First().Text())
	if strings.Contains(text, "기자") {
		return text
	}
	return ""
}

func (p profile) publishedTime(doc *goquery.Document) string {
	if v := firstAttr(doc.Selection, "content", p.publishedMeta...); v != "" {
		return v
	}
	return firstText(doc.Selection, p.publishedText...)
}

func (p profile) imageURL(doc *goquery.Document) string {
	for _, sel := range p.image {
		img := doc.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		if u := imageFromTag(img, p.imageHost); u != "" {
			return u
		}
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		found = imageFromTag(img, p.imageHost)
		return found == ""
	})
	if found != "" {
		return found
	}

	return normalizeImageURL(firstAttr(doc.Selection, "content", p.imageMeta...), p.imageHost)
}

// imageFromTag prefers the last srcset candidate, then src. Inline data
// URIs are never returned.
func imageFromTag(img *goquery.Selection, host string) string {
	srcset, ok := img.Attr("srcset")
	if !ok || strings.TrimSpace(srcset) == "" {
		srcset, _ = img.Attr("data-srcset")
	}
	if srcset != "" {
		candidates := strings.Split(srcset, ",")
		for i := len(candidates) - 1; i >= 0; i-- {
			fields := strings.Fields(candidates[i])
			if len(fields) == 0 {
				continue
			}
			if u := normalizeImageURL(fields[0], host); u != "" {
				return u
			}
		}
	}
	src, _ := img.Attr("src")
	return normalizeImageURL(src, host)
}

func normalizeImageURL(raw, host string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "", strings.HasPrefix(raw, "data:"):
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "http"):
		return raw
	case strings.HasPrefix(raw, "/") && host != "":
		return strings.TrimSuffix(host, "/") + raw
	default:
		return ""
	}
}

func firstText(root *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if text := collapseSpaces(root.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(root *goquery.Selection, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := root.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
