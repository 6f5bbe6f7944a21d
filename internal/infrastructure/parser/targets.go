package parser

import (
	"log/slog"

	"NewsBrief/internal/config"
	"NewsBrief/internal/scanner"
)

// Targets flattens configured sites into crawl targets. Categories without a
// feed URL are dropped.
func Targets(sites []config.SiteConfig, logger *slog.Logger) []scanner.Target {
	var targets []scanner.Target
	for _, site := range sites {
		for _, category := range site.Categories {
			if category.URL == "" {
				if logger != nil {
					logger.Warn("category has no feed url", "publisher", site.Name, "category", category.Name)
				}
				continue
			}
			targets = append(targets, scanner.Target{
				Publisher: site.Name,
				Category:  category.Name,
				FeedURL:   category.URL,
			})
		}
	}
	return targets
}
