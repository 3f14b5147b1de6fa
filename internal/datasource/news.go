package datasource

import (
	"context"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/marketdeck/marketdeck/pkg/models"
	"github.com/marketdeck/marketdeck/pkg/utils"
)

// NewsSource is one configured RSS feed.
type NewsSource struct {
	Name   string
	RSSURL string
}

// DefaultNewsSources lists the Indian financial news feeds polled by default.
var DefaultNewsSources = []NewsSource{
	{Name: "Moneycontrol", RSSURL: "https://www.moneycontrol.com/rss/marketreports.xml"},
	{Name: "Economic Times Markets", RSSURL: "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms"},
	{Name: "LiveMint Markets", RSSURL: "https://www.livemint.com/rss/markets"},
}

// News fetches market headlines from Indian financial RSS feeds.
type News struct {
	sources []NewsSource
	parser  *gofeed.Parser
}

// NewNews creates a news gateway over the given sources; nil selects the
// defaults.
func NewNews(sources []NewsSource) *News {
	if sources == nil {
		sources = DefaultNewsSources
	}
	return &News{
		sources: sources,
		parser:  gofeed.NewParser(),
	}
}

// Name returns the gateway name.
func (n *News) Name() string { return "Indian News" }

// GetMarketNews returns recent market headlines merged across all feeds,
// newest first. A feed that fails to fetch or parse is skipped; the call
// only errors when every feed fails.
func (n *News) GetMarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	type dated struct {
		article models.NewsArticle
		at      time.Time
	}

	var items []dated
	var lastErr error

	for _, src := range n.sources {
		feed, err := n.parser.ParseURLWithContext(src.RSSURL, ctx)
		if err != nil {
			lastErr = err
			continue
		}
		for _, item := range feed.Items {
			d := dated{article: models.NewsArticle{
				Title:  item.Title,
				Link:   item.Link,
				Source: src.Name,
			}}
			if item.PublishedParsed != nil {
				d.at = *item.PublishedParsed
				d.article.Published = utils.FormatDateTimeIST(d.at)
			}
			items = append(items, d)
		}
	}

	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].at.After(items[j].at)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	articles := make([]models.NewsArticle, len(items))
	for i, d := range items {
		articles[i] = d.article
	}
	return articles, nil
}
