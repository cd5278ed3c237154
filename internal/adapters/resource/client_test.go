package resource_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/resource"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestAssignmentCalls(t *testing.T) {
	Convey("Given a resource API", t, func() {
		var status atomic.Int64
		status.Store(http.StatusOK)

		var lastAuth, lastRequestID string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastAuth = r.Header.Get("Authorization")
			lastRequestID = r.Header.Get("X-Request-Id")
			w.WriteHeader(int(status.Load()))
		}))
		defer srv.Close()

		client := resource.NewClient(srv.URL, resource.WithToken("t0ken"))
		ctx := context.Background()

		Convey("Creates succeed on 2xx", func() {
			So(client.CreateAssignment(ctx, "30001", "r1", "alice"), ShouldBeNil)
			So(lastAuth, ShouldEqual, "Bearer t0ken")
			So(lastRequestID, ShouldNotBeEmpty)
		})

		Convey("A 409 on create is idempotent success", func() {
			status.Store(http.StatusConflict)
			So(client.CreateAssignment(ctx, "30001", "r1", "alice"), ShouldBeNil)
		})

		Convey("A 404 on delete is idempotent success", func() {
			status.Store(http.StatusNotFound)
			So(client.DeleteAssignment(ctx, "30001", "r1", "alice"), ShouldBeNil)
		})

		Convey("Other failures surface as errors", func() {
			status.Store(http.StatusInternalServerError)
			So(client.CreateAssignment(ctx, "30001", "r1", "alice"), ShouldNotBeNil)
			So(client.DeleteAssignment(ctx, "30001", "r1", "alice"), ShouldNotBeNil)
		})
	})
}

func TestListAssignments(t *testing.T) {
	Convey("Given a resource API returning assignments", t, func(c C) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.So(r.URL.Query().Get("challengeId"), ShouldEqual, "30001")
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"challengeId": "30001", "roleId": "r1", "roleName": "Reviewer", "memberHandle": "alice", "memberId": "100"},
			})
		}))
		defer srv.Close()

		client := resource.NewClient(srv.URL)

		Convey("Then rows decode into role assignments", func() {
			got, err := client.ListAssignments(context.Background(), "30001")
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].RoleName, ShouldEqual, "Reviewer")
			So(got[0].MemberHandle, ShouldEqual, "alice")
		})
	})
}

func TestLookupRoleID(t *testing.T) {
	Convey("Given a role directory", t, func() {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			name := r.URL.Query().Get("name")
			if name != "Reviewer" {
				_ = json.NewEncoder(w).Encode([]map[string]string{})
				return
			}
			_ = json.NewEncoder(w).Encode([]map[string]string{
				{"id": "r-reviewer", "name": "Reviewer"},
			})
		}))
		defer srv.Close()

		client := resource.NewClient(srv.URL)
		ctx := context.Background()

		Convey("Hits resolve and are cached", func() {
			id, err := client.LookupRoleID(ctx, "Reviewer")
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "r-reviewer")

			_, err = client.LookupRoleID(ctx, "Reviewer")
			So(err, ShouldBeNil)
			So(hits.Load(), ShouldEqual, 1)
		})

		Convey("Misses report the sentinel", func() {
			_, err := client.LookupRoleID(ctx, "Copilot")
			So(errors.Is(err, resource.ErrRoleNotFound), ShouldBeTrue)
		})
	})
}
