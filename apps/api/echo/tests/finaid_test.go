package tests

import (
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/finaid"
	"github.com/trezcool/darasa/core/user"
)

// The financial assistance backend stays switched off in tests; the API must
// refuse every call before touching the network.
func Test_finAidApi_disabled(t *testing.T) {
	db.Reset()

	student := user.CreateTestUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	token := getToken(t, student)
	disabled := marchallObj(t, httpErr{Error: "financial assistance is not enabled"})

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/finaid/courses/edX%2FDemo%2F2026/eligibility",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Eligibility disabled", method: http.MethodGet, path: "/v1/finaid/courses/edX%2FDemo%2F2026/eligibility",
			token: token, wantCode: http.StatusForbidden, wantData: disabled},
		{name: "Status disabled", method: http.MethodGet, path: "/v1/finaid/applications/status?course_id=edX/Demo/2026",
			token: token, wantCode: http.StatusForbidden, wantData: disabled},
		{name: "Create disabled", method: http.MethodPost, path: "/v1/finaid/applications",
			token: token, wantCode: http.StatusForbidden, wantData: disabled,
			body: marchallObj(t, finaid.Application{
				CourseID:       "edX/Demo/2026",
				Income:         "$25,000 - $40,000",
				LearnerReasons: "I need this course for my career.",
				LearnerGoals:   "Become a data engineer.",
				LearnerPlans:   "Study every evening.",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("missing course_id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/finaid/applications/status", token)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "course_id is required"})}
		checkCodeAndData(t, tt, rec)
	})
}
