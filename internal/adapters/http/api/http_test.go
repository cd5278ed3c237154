package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/http/api"
	service "github.com/topcoder-platform/work-manager-sub000/internal/app"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type fakeBackend struct {
	assignments []model.RoleAssignment
}

func (f *fakeBackend) CreateAssignment(context.Context, string, string, string) error { return nil }
func (f *fakeBackend) DeleteAssignment(context.Context, string, string, string) error { return nil }

func (f *fakeBackend) LookupRoleID(_ context.Context, roleName string) (string, error) {
	return "role-" + roleName, nil
}

func (f *fakeBackend) FindDefaultReviewer(context.Context, string, string, string) (*model.ReviewerTemplate, error) {
	return &model.ReviewerTemplate{IsMemberReview: true, ScorecardID: "sc-default", FixedAmount: 25}, nil
}

func (f *fakeBackend) LookupWorkflow(context.Context, string) (*model.Workflow, error) {
	return nil, nil
}

func (f *fakeBackend) ListAssignments(context.Context, string) ([]model.RoleAssignment, error) {
	return f.assignments, nil
}

func newTestServer() (*httptest.Server, *fakeBackend) {
	backend := &fakeBackend{}
	svc := service.New(
		service.WithLogger(logger.Get()),
		service.WithCollaborators(backend, backend, backend, backend, backend),
	)
	_ = svc.Start(context.Background())

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), backend
}

func openSession(srv *httptest.Server) *http.Response {
	body := map[string]any{
		"challenge": map[string]any{
			"trackId":  "track-dev",
			"typeId":   "type-ch",
			"typeName": "Challenge",
			"phases": []map[string]string{
				{"id": "p-review", "name": "Review"},
				{"id": "p-approval", "name": "Approval"},
			},
			"prizeSets": []map[string]any{
				{"type": "PLACEMENT", "prizes": []map[string]any{{"type": "USD", "value": 1000.0}}},
			},
		},
		"reviewers": []map[string]any{{
			"kind":                   "MEMBER",
			"phaseId":                "p-review",
			"scorecardId":            "sc1",
			"memberReviewerCount":    2,
			"fixedAmount":            50.0,
			"baseCoefficient":        0.13,
			"incrementalCoefficient": 0.05,
		}},
	}
	buf, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/challenges/30001/session", bytes.NewReader(buf))
	resp, _ := http.DefaultClient.Do(req)
	return resp
}

func doJSON(method, url string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestReviewerAPI(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv, backend := newTestServer()
		defer srv.Close()

		backend.assignments = []model.RoleAssignment{
			{ChallengeID: "30001", RoleName: "Reviewer", MemberHandle: "alice", MemberID: "100"},
		}

		Convey("Opening a session primes the assignment table", func() {
			resp := openSession(srv)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()

			getResp, snapshot := doJSON(http.MethodGet, srv.URL+"/challenges/30001/reviewers", nil)
			So(getResp.StatusCode, ShouldEqual, http.StatusOK)

			reviewers := snapshot["reviewers"].([]any)
			So(reviewers, ShouldHaveLength, 1)

			assignments := snapshot["assignments"].(map[string]any)
			members := assignments["0"].([]any)
			So(members[0].(map[string]any)["handle"], ShouldEqual, "alice")
		})

		Convey("With an open session", func() {
			resp := openSession(srv)
			resp.Body.Close()

			Convey("Adding a slot returns its index", func() {
				addResp, body := doJSON(http.MethodPost, srv.URL+"/challenges/30001/reviewers", nil)
				So(addResp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["index"], ShouldEqual, 1)
			})

			Convey("Assigning and clearing a member round-trips", func() {
				putURL := srv.URL + "/challenges/30001/reviewers/0/assignments/1"
				putResp, _ := doJSON(http.MethodPut, putURL, map[string]string{"handle": "bob", "userId": "200"})
				So(putResp.StatusCode, ShouldEqual, http.StatusOK)

				_, snapshot := doJSON(http.MethodGet, srv.URL+"/challenges/30001/reviewers", nil)
				members := snapshot["assignments"].(map[string]any)["0"].([]any)
				So(members[1].(map[string]any)["handle"], ShouldEqual, "bob")

				clearResp, _ := doJSON(http.MethodPut, putURL, map[string]string{"handle": ""})
				So(clearResp.StatusCode, ShouldEqual, http.StatusOK)
			})

			Convey("Updating a field with a bad value is a field-level 400", func() {
				patchResp, body := doJSON(http.MethodPatch, srv.URL+"/challenges/30001/reviewers/0",
					map[string]any{"field": "phaseId", "value": 12})
				So(patchResp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "validation")
				So(body["field"], ShouldEqual, "phaseId")
			})

			Convey("Cost estimation applies the payment formula", func() {
				costResp, body := doJSON(http.MethodGet, srv.URL+"/challenges/30001/review-cost", nil)
				So(costResp.StatusCode, ShouldEqual, http.StatusOK)
				// 2 reviewers * (50 + (0.13+0.05*2)*1000) = 560
				So(body["estimatedCost"], ShouldEqual, 560.0)
			})

			Convey("Missing phases reports unsatisfied configured phases", func() {
				mpResp, body := doJSON(http.MethodGet, srv.URL+"/challenges/30001/missing-phases", nil)
				So(mpResp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["missingPhases"], ShouldResemble, []any{"Approval"})
			})

			Convey("Assigning into an openly competed slot is a 409", func() {
				openResp, _ := doJSON(http.MethodPost, srv.URL+"/challenges/30001/reviewers/0/open",
					map[string]bool{"open": true})
				So(openResp.StatusCode, ShouldEqual, http.StatusOK)

				putResp, body := doJSON(http.MethodPut, srv.URL+"/challenges/30001/reviewers/0/assignments/0",
					map[string]string{"handle": "bob", "userId": "200"})
				So(putResp.StatusCode, ShouldEqual, http.StatusConflict)
				So(body["code"], ShouldEqual, "conflict")
			})

			Convey("Positions beyond the slot's headcount are a 404", func() {
				putResp, _ := doJSON(http.MethodPut, srv.URL+"/challenges/30001/reviewers/0/assignments/5",
					map[string]string{"handle": "bob", "userId": "200"})
				So(putResp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("Out-of-range slot operations map to 404", func() {
				delResp, _ := doJSON(http.MethodDelete, srv.URL+"/challenges/30001/reviewers/9", nil)
				So(delResp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("Closing the session makes further reads 404", func() {
				req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/challenges/30001/session", nil)
				delResp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				So(delResp.StatusCode, ShouldEqual, http.StatusNoContent)
				delResp.Body.Close()

				getResp, body := doJSON(http.MethodGet, srv.URL+"/challenges/30001/reviewers", nil)
				So(getResp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "session_not_found")
			})
		})

		Convey("Operations without a session are 404", func() {
			resp, body := doJSON(http.MethodGet, srv.URL+fmt.Sprintf("/challenges/%s/reviewers", "99999"), nil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "session_not_found")
		})

		Convey("Health endpoint serves the metrics registry", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})

		Convey("Stats reports open sessions", func() {
			resp := openSession(srv)
			resp.Body.Close()

			statsResp, body := doJSON(http.MethodGet, srv.URL+"/stats", nil)
			So(statsResp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["openSessions"], ShouldEqual, 1)
			So(body["started"], ShouldEqual, true)
		})
	})
}
