package parser

import "net/http"

// Publisher names as they appear in feeds config and the publishers table.
const (
	PublisherSBS      = "SBS뉴스"
	PublisherHankyung = "한국경제"
	PublisherMaeil    = "매일경제"
)

var sbsProfile = profile{
	publisher:     PublisherSBS,
	title:         []string{"h1.article_main_tit#news-title", "h1.article_main_tit", ".article_main_tit", "h1"},
	titleMeta:     []string{`meta[property="og:title"]`},
	content:       []string{`div.text_area[itemprop="articleBody"]`, ".text_area", ".article_content", ".content"},
	reporter:      []string{`span[itemprop="name"]`, ".reporter span"},
	reporterBlock: ".reporter",
	publishedMeta: []string{`div.date_area meta[itemprop="datePublished"]`, `meta[itemprop="datePublished"]`},
	publishedText: []string{"div.date_area span", ".date_area span", ".date span", "time"},
	image:         []string{"img.mainimg", ".mainimg img", ".article_img img", ".content_img img"},
	imageMeta:     []string{`meta[property="og:image"]`},
	imageHost:     "https://img.sbs.co.kr",
}

var hankyungProfile = profile{
	publisher:     PublisherHankyung,
	title:         []string{"h1.headline", ".article-tit", "h1"},
	titleMeta:     []string{`meta[property="og:title"]`},
	content:       []string{"div#articletxt", ".article-body", "#articletxt"},
	reporter:      []string{".author-wrap .name", ".byline .name", ".author .name"},
	reporterBlock: ".byline",
	publishedMeta: []string{`meta[property="article:published_time"]`},
	publishedText: []string{".datetime .txt-date", ".date-published .num"},
	image:         []string{"figure.article-figure img", ".article-body img"},
	imageMeta:     []string{`meta[property="og:image"]`},
	imageHost:     "https://img.hankyung.com",
}

var maeilProfile = profile{
	publisher:     PublisherMaeil,
	title:         []string{"h2.news_ttl", ".top_title", "h1"},
	titleMeta:     []string{`meta[property="og:title"]`},
	content:       []string{"div.news_cnt_detail_wrap", `div[itemprop="articleBody"]`, ".art_txt"},
	reporter:      []string{".author .name", ".byline .name"},
	reporterBlock: ".author",
	publishedMeta: []string{`meta[property="article:published_time"]`},
	publishedText: []string{".time_area .registration dd", ".time_info .registration"},
	image:         []string{".thumb_area img", ".news_cnt_detail_wrap img"},
	imageMeta:     []string{`meta[property="og:image"]`},
	imageHost:     "https://pimg.mk.co.kr",
}

// NewSBSExtractor builds the SBS뉴스 adapter.
func NewSBSExtractor(client *http.Client, userAgent string) *SiteExtractor {
	return newSiteExtractor(sbsProfile, client, userAgent)
}

// NewHankyungExtractor builds the 한국경제 adapter.
func NewHankyungExtractor(client *http.Client, userAgent string) *SiteExtractor {
	return newSiteExtractor(hankyungProfile, client, userAgent)
}

// NewMaeilExtractor builds the 매일경제 adapter.
func NewMaeilExtractor(client *http.Client, userAgent string) *SiteExtractor {
	return newSiteExtractor(maeilProfile, client, userAgent)
}

// Extractors returns one adapter per supported publisher sharing a client.
func Extractors(client *http.Client, userAgent string) []*SiteExtractor {
	return []*SiteExtractor{
		NewSBSExtractor(client, userAgent),
		NewHankyungExtractor(client, userAgent),
		NewMaeilExtractor(client, userAgent),
	}
}
