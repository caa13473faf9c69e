package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
)

// GreenhouseSource is the source tag of Greenhouse postings.
const GreenhouseSource = "greenhouse"

// DefaultGreenhouseBaseURL is the public job board API root.
const DefaultGreenhouseBaseURL = "https://boards-api.greenhouse.io"

// DefaultGreenhouseCompanies returns the boards fetched when none are configured.
func DefaultGreenhouseCompanies() []string {
	return []string{"cloudflare", "datadog", "elastic", "mongodb"}
}

// DefaultRelevanceKeywords returns the title keywords that select postings
// worth a detail request.
func DefaultRelevanceKeywords() []string {
	return []string{
		"sre", "devops", "cloud", "infrastructure", "platform",
		"reliability", "backend", "systems engineer", "site reliability",
	}
}

// Greenhouse collects postings from Greenhouse job boards.
type Greenhouse struct {
	base
	companies []string
	keywords  []string
}

type ghListItem struct {
	ID          int64  `mapstructure:"id"`
	Title       string `mapstructure:"title"`
	AbsoluteURL string `mapstructure:"absolute_url"`
	Location    struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"location"`
}

type ghList struct {
	Jobs []any `json:"jobs"`
}

type ghDetail struct {
	Content string `json:"content"`
}

// NewGreenhouse builds a collector over companies, keeping titles that contain
// any of keywords. Empty slices fall back to the defaults.
func NewGreenhouse(companies, keywords []string, opts ...Option) *Greenhouse {
	if len(companies) == 0 {
		companies = DefaultGreenhouseCompanies()
	}
	if len(keywords) == 0 {
		keywords = DefaultRelevanceKeywords()
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}
	return &Greenhouse{
		base:      newBase(GreenhouseSource, DefaultGreenhouseBaseURL, opts...),
		companies: append([]string(nil), companies...),
		keywords:  lower,
	}
}

func (g *Greenhouse) Name() string { return GreenhouseSource }

// Fetch walks every configured board. A failing board is logged and skipped;
// only context cancellation aborts the walk.
func (g *Greenhouse) Fetch(ctx context.Context) ([]model.Posting, error) {
	var out []model.Posting
	for _, company := range g.companies {
		postings, err := g.fetchCompany(ctx, company)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("greenhouse: %w", ctxErr)
			}
			g.log.Error(ctx, "company fetch failed", logger.String("company", company), logger.Error(err))
		} else {
			g.log.Info(ctx, "company fetched", logger.String("company", company), logger.Int("relevant", len(postings)))
			out = append(out, postings...)
		}
		if err := g.throttle.Wait(ctx); err != nil {
			return nil, fmt.Errorf("greenhouse: %w", err)
		}
	}
	return out, nil
}

// Relevant reports whether title contains a relevance keyword.
func (g *Greenhouse) Relevant(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range g.keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func (g *Greenhouse) fetchCompany(ctx context.Context, company string) ([]model.Posting, error) {
	var list ghList
	listURL := fmt.Sprintf("%s/v1/boards/%s/jobs", g.baseURL, url.PathEscape(company))
	if err := g.getJSON(ctx, listURL, &list); err != nil {
		return nil, err
	}

	var relevant []ghListItem
	for i, raw := range list.Jobs {
		var item ghListItem
		if err := mapstructure.Decode(raw, &item); err != nil {
			g.log.Warn(ctx, "malformed list item", logger.String("company", company), logger.Int("index", i), logger.Error(err))
			continue
		}
		if g.Relevant(item.Title) {
			relevant = append(relevant, item)
		}
	}
	g.log.Debug(ctx, "board listed", logger.String("company", company),
		logger.Int("total", len(list.Jobs)), logger.Int("relevant", len(relevant)))

	postings := make([]model.Posting, 0, len(relevant))
	for _, item := range relevant {
		p, err := g.fetchDetail(ctx, company, item)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			g.log.Warn(ctx, "detail fetch failed", logger.String("company", company),
				logger.Any("id", item.ID), logger.Error(err))
		} else {
			postings = append(postings, p)
		}
		if err := g.throttle.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return postings, nil
}

func (g *Greenhouse) fetchDetail(ctx context.Context, company string, item ghListItem) (model.Posting, error) {
	if item.ID == 0 {
		return model.Posting{}, errors.New("list item has no id")
	}
	var detail ghDetail
	detailURL := fmt.Sprintf("%s/v1/boards/%s/jobs/%d", g.baseURL, url.PathEscape(company), item.ID)
	if err := g.getJSON(ctx, detailURL, &detail); err != nil {
		return model.Posting{}, err
	}
	return model.NewPosting(GreenhouseSource, company, item.Title, item.Location.Name,
		StripHTML(detail.Content), item.AbsoluteURL), nil
}
