package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
)

const (
	// AdzunaSource is the source tag of Adzuna postings.
	AdzunaSource = "adzuna"

	// DefaultAdzunaBaseURL is the search API root.
	DefaultAdzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

	adzunaPageSize = 50
	adzunaMaxPages = 3
)

// AdzunaConfig selects credentials and the search query.
type AdzunaConfig struct {
	AppID   string `koanf:"app_id"`
	AppKey  string `koanf:"app_key"`
	Country string `koanf:"country"`
	What    string `koanf:"what"`
	Where   string `koanf:"where"`
}

// Enabled reports whether credentials are present.
func (c AdzunaConfig) Enabled() bool {
	return c.AppID != "" && c.AppKey != ""
}

// Adzuna collects postings from the Adzuna search API.
type Adzuna struct {
	base
	cfg AdzunaConfig
}

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RedirectURL string `json:"redirect_url"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

// NewAdzuna builds an Adzuna collector. Country defaults to "us".
func NewAdzuna(cfg AdzunaConfig, opts ...Option) *Adzuna {
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	return &Adzuna{
		base: newBase(AdzunaSource, DefaultAdzunaBaseURL, opts...),
		cfg:  cfg,
	}
}

func (a *Adzuna) Name() string { return AdzunaSource }

// Fetch pages through search results until a short page or the page cap.
// Missing credentials yield no postings and no error.
func (a *Adzuna) Fetch(ctx context.Context) ([]model.Posting, error) {
	if !a.cfg.Enabled() {
		a.log.Warn(ctx, "adzuna credentials not set, skipping")
		return nil, nil
	}

	var out []model.Posting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, n, err := a.fetchPage(ctx, page)
		if err != nil {
			return out, fmt.Errorf("adzuna page %d: %w", page, err)
		}
		out = append(out, batch...)
		if n < adzunaPageSize {
			break
		}
		if err := a.throttle.Wait(ctx); err != nil {
			return out, fmt.Errorf("adzuna: %w", err)
		}
	}
	a.log.Info(ctx, "search fetched", logger.String("what", a.cfg.What), logger.Int("postings", len(out)))
	return out, nil
}

// fetchPage returns the usable postings of page and the raw result count.
func (a *Adzuna) fetchPage(ctx context.Context, page int) ([]model.Posting, int, error) {
	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("app_key", a.cfg.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	if a.cfg.What != "" {
		params.Set("what", a.cfg.What)
	}
	if a.cfg.Where != "" {
		params.Set("where", a.cfg.Where)
	}
	params.Set("sort_by", "date")

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", a.baseURL, url.PathEscape(a.cfg.Country), page, params.Encode())

	var resp adzunaResponse
	if err := a.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, 0, err
	}

	postings := make([]model.Posting, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Title == "" || r.Company.DisplayName == "" {
			a.log.Debug(ctx, "skipping incomplete result", logger.String("id", r.ID))
			continue
		}
		postings = append(postings, model.NewPosting(AdzunaSource, r.Company.DisplayName, r.Title,
			r.Location.DisplayName, StripHTML(r.Description), r.RedirectURL))
	}
	return postings, len(resp.Results), nil
}
