package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/pkg/logger"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func greenhouseServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/boards/acme/jobs", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"jobs": []any{
			map[string]any{"id": 1, "title": "Senior SRE", "absolute_url": "https://acme.test/1",
				"location": map[string]any{"name": "Remote - US"}},
			map[string]any{"id": 2, "title": "Account Executive", "location": map[string]any{"name": "NYC"}},
			map[string]any{"title": "Platform Engineer"},
			"oops",
			map[string]any{"id": 4, "title": "Cloud Engineer", "location": map[string]any{"name": "Berlin"}},
		}})
	})
	mux.HandleFunc("/v1/boards/acme/jobs/1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"content": "&lt;p&gt;We use &lt;b&gt;Terraform&lt;/b&gt; &amp;amp; AWS&lt;/p&gt;&lt;ul&gt;&lt;li&gt;Docker&lt;/li&gt;&lt;li&gt;3+ years&lt;/li&gt;&lt;/ul&gt;"})
	})
	mux.HandleFunc("/v1/boards/acme/jobs/4", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/boards/broken/jobs", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	return httptest.NewServer(mux)
}

func TestGreenhouseFetch(t *testing.T) {
	Convey("Given a Greenhouse board API", t, func() {
		srv := greenhouseServer()
		defer srv.Close()

		g := NewGreenhouse([]string{"broken", "acme"}, nil,
			WithBaseURL(srv.URL), WithDelay(0), WithLogger(logger.Nop()))

		Convey("When fetching all companies", func() {
			postings, err := g.Fetch(context.Background())

			Convey("Then failing boards and items are skipped", func() {
				So(err, ShouldBeNil)
				So(len(postings), ShouldEqual, 1)
			})

			Convey("Then the posting is fully populated", func() {
				p := postings[0]
				So(p.ID, ShouldEqual, model.PostingID("greenhouse", "acme", "Senior SRE"))
				So(p.Source, ShouldEqual, GreenhouseSource)
				So(p.Company, ShouldEqual, "acme")
				So(p.Location, ShouldEqual, "Remote - US")
				So(p.Remote, ShouldBeTrue)
				So(p.SourceURL, ShouldEqual, "https://acme.test/1")
				So(p.Description, ShouldEqual, "We use Terraform & AWS Docker 3+ years")
				So(p.RequiredSkills, ShouldBeEmpty)
				So(p.RequiredYears, ShouldEqual, 0)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := g.Fetch(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestGreenhouseRelevance(t *testing.T) {
	Convey("Given the default keywords", t, func() {
		g := NewGreenhouse(nil, nil, WithLogger(logger.Nop()))

		So(g.Relevant("Site Reliability Engineer"), ShouldBeTrue)
		So(g.Relevant("DevOps Lead"), ShouldBeTrue)
		So(g.Relevant("Backend Developer"), ShouldBeTrue)
		So(g.Relevant("Account Executive"), ShouldBeFalse)
		So(g.companies, ShouldResemble, DefaultGreenhouseCompanies())
	})

	Convey("Given custom keywords", t, func() {
		g := NewGreenhouse([]string{"x"}, []string{"Data"}, WithLogger(logger.Nop()))
		So(g.Relevant("Senior data engineer"), ShouldBeTrue)
		So(g.Relevant("SRE"), ShouldBeFalse)
	})
}

func adzunaPage(n int, offset int) map[string]any {
	results := make([]any, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, map[string]any{
			"id":           fmt.Sprint(offset + i),
			"title":        fmt.Sprintf("DevOps Engineer %d", offset+i),
			"description":  "<b>Kubernetes</b> and terraform",
			"redirect_url": "https://adzuna.test/x",
			"company":      map[string]any{"display_name": "Initech"},
			"location":     map[string]any{"display_name": "Remote"},
		})
	}
	return map[string]any{"results": results, "count": n}
}

func TestAdzunaFetch(t *testing.T) {
	Convey("Given an Adzuna search API", t, func() {
		var calls atomic.Int32
		var lastQuery atomic.Value
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			lastQuery.Store(r.URL.RawQuery)
			switch r.URL.Path {
			case "/gb/search/1":
				writeJSON(w, adzunaPage(50, 0))
			case "/gb/search/2":
				writeJSON(w, adzunaPage(3, 50))
			default:
				http.Error(w, "unexpected", http.StatusTeapot)
			}
		}))
		defer srv.Close()

		cfg := AdzunaConfig{AppID: "id", AppKey: "key", Country: "gb", What: "devops"}

		Convey("When results end on a short page", func() {
			a := NewAdzuna(cfg, WithBaseURL(srv.URL), WithDelay(0), WithLogger(logger.Nop()))
			postings, err := a.Fetch(context.Background())

			Convey("Then paging stops after it", func() {
				So(err, ShouldBeNil)
				So(len(postings), ShouldEqual, 53)
				So(calls.Load(), ShouldEqual, 2)
				So(lastQuery.Load().(string), ShouldContainSubstring, "results_per_page=50")
				So(lastQuery.Load().(string), ShouldContainSubstring, "what=devops")
				So(postings[0].Description, ShouldEqual, "Kubernetes and terraform")
				So(postings[0].Source, ShouldEqual, AdzunaSource)
				So(postings[0].Remote, ShouldBeTrue)
			})
		})

		Convey("When credentials are missing", func() {
			a := NewAdzuna(AdzunaConfig{}, WithBaseURL(srv.URL), WithLogger(logger.Nop()))
			postings, err := a.Fetch(context.Background())

			Convey("Then nothing is fetched and no error is returned", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldBeNil)
				So(calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the API answers with an error status", func() {
			bad := cfg
			bad.Country = "zz"
			a := NewAdzuna(bad, WithBaseURL(srv.URL), WithDelay(0), WithLogger(logger.Nop()))
			_, err := a.Fetch(context.Background())

			Convey("Then a redacted FetchError is returned", func() {
				So(errors.Is(err, ErrFetch), ShouldBeTrue)
				var fe *FetchError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Status, ShouldEqual, http.StatusTeapot)
				So(fe.Source, ShouldEqual, AdzunaSource)
				So(fe.URL, ShouldNotContainSubstring, "app_key=key")
				So(strings.Contains(err.Error(), "app_key=key"), ShouldBeFalse)
			})
		})
	})
}

func TestStripHTML(t *testing.T) {
	Convey("Given HTML fragments", t, func() {
		So(StripHTML(""), ShouldEqual, "")
		So(StripHTML("plain text"), ShouldEqual, "plain text")
		So(StripHTML("<p>Hello <em>world</em></p>"), ShouldEqual, "Hello world")
		So(StripHTML("&lt;div&gt;escaped&lt;/div&gt;"), ShouldEqual, "escaped")
		So(StripHTML("<ul><li>Go</li><li>AWS</li></ul>"), ShouldEqual, "Go AWS")
		So(StripHTML("<script>alert(1)</script>kept"), ShouldEqual, "kept")
	})
}

func TestThrottle(t *testing.T) {
	Convey("Given a throttle", t, func() {
		Convey("When the delay is disabled", func() {
			So(NewThrottle(0).Wait(context.Background()), ShouldBeNil)
		})

		Convey("When the context is cancelled during the wait", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := NewThrottle(time.Hour).Wait(ctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When waiting a short delay", func() {
			start := time.Now()
			So(NewThrottle(10*time.Millisecond).Wait(context.Background()), ShouldBeNil)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 10*time.Millisecond)
		})
	})
}

func TestFuncCollector(t *testing.T) {
	Convey("Given a static collector", t, func() {
		p := model.NewPosting("manual", "acme", "SRE", "", "", "")
		c := Static("manual", p)
		So(c.Name(), ShouldEqual, "manual")
		got, err := c.Fetch(context.Background())
		So(err, ShouldBeNil)
		So(got, ShouldResemble, []model.Posting{p})
	})
}
