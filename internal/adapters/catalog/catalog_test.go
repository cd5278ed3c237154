package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/catalog"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestFindDefaultReviewer(t *testing.T) {
	Convey("Given a catalog API with one template", t, func() {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if r.URL.Query().Get("trackId") != "track-dev" {
				_ = json.NewEncoder(w).Encode([]map[string]any{})
				return
			}
			_ = json.NewEncoder(w).Encode([]map[string]any{{
				"trackId":                "track-dev",
				"typeId":                 "type-ch",
				"phaseId":                "p-review",
				"scorecardId":            "sc-default",
				"isMemberReview":         true,
				"fixedAmount":            25.0,
				"baseCoefficient":        0.1,
				"incrementalCoefficient": 0.02,
			}})
		}))
		defer srv.Close()

		client := catalog.NewClient(srv.URL)
		ctx := context.Background()

		Convey("A match decodes and is cached", func() {
			tpl, err := client.FindDefaultReviewer(ctx, "track-dev", "type-ch", "p-review")
			So(err, ShouldBeNil)
			So(tpl, ShouldNotBeNil)
			So(tpl.ScorecardID, ShouldEqual, "sc-default")
			So(tpl.FixedAmount, ShouldEqual, 25.0)

			_, err = client.FindDefaultReviewer(ctx, "track-dev", "type-ch", "p-review")
			So(err, ShouldBeNil)
			So(hits.Load(), ShouldEqual, 1)
		})

		Convey("No match yields nil without error", func() {
			tpl, err := client.FindDefaultReviewer(ctx, "track-design", "type-ch", "")
			So(err, ShouldBeNil)
			So(tpl, ShouldBeNil)
		})
	})
}

func TestLookupWorkflow(t *testing.T) {
	Convey("Given a catalog API with one workflow", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ai-workflows/wf1" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"id": "wf1", "name": "AI Review", "scorecardId": "sc-ai",
			})
		}))
		defer srv.Close()

		client := catalog.NewClient(srv.URL)
		ctx := context.Background()

		Convey("Known workflows resolve", func() {
			wf, err := client.LookupWorkflow(ctx, "wf1")
			So(err, ShouldBeNil)
			So(wf, ShouldNotBeNil)
			So(wf.ScorecardID, ShouldEqual, "sc-ai")
		})

		Convey("Unknown workflows yield nil without error", func() {
			wf, err := client.LookupWorkflow(ctx, "missing")
			So(err, ShouldBeNil)
			So(wf, ShouldBeNil)
		})
	})
}
