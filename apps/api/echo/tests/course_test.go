package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

func Test_courseApi_upsell(t *testing.T) {
	db.Reset()

	const courseID = "course-v1:edX+Demo+2026"
	path := "/v1/courses/" + url.PathEscape(courseID) + "/upsell"

	student := user.CreateTestUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	verified := user.CreateTestUser(t, usrRepo, "Paid", "paid", "paid@test.cd", "", []string{user.RoleStudent}, true)
	expired := user.CreateTestUser(t, usrRepo, "Late", "late", "late@test.cd", "", []string{user.RoleStudent}, true)

	ctx := context.Background()
	if _, err := courseRepo.SaveMode(ctx, course.Mode{
		CourseID:    courseID,
		Slug:        course.ModeVerified,
		DisplayName: "Verified Certificate",
		MinPrice:    49,
		Currency:    "usd",
		SKU:         "A1B2C3",
	}); err != nil {
		t.Fatalf("SaveMode(): %v", err)
	}

	deadline := time.Now().UTC().Add(24 * time.Hour)
	pastDeadline := time.Now().UTC().Add(-48 * time.Hour)
	saveEnrollment := func(usr user.User, mode string, dl *time.Time) {
		if _, err := courseRepo.SaveEnrollment(ctx, course.Enrollment{
			UserID:          usr.ID,
			CourseID:        courseID,
			Mode:            mode,
			IsActive:        true,
			UpgradeDeadline: dl,
		}); err != nil {
			t.Fatalf("SaveEnrollment(): %v", err)
		}
	}
	saveEnrollment(student, course.ModeAudit, &deadline)
	saveEnrollment(verified, course.ModeVerified, &deadline)
	saveEnrollment(expired, course.ModeAudit, &pastDeadline)

	deadlineStr := deadline.Format("2006-01-02T15:04:05Z")
	tests := []httpTest{
		{name: "Auth required", token: "", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Upsellable enrollment", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.UpsellResponse{
				CourseID:        courseID,
				Mode:            course.ModeAudit,
				CanShowUpsell:   true,
				UpgradeDeadline: &deadlineStr,
				UpgradeURL:      "https://ecommerce.test/basket/add/?sku=A1B2C3",
			}),
		},
		{
			name: "Already verified", token: getToken(t, verified), wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.UpsellResponse{
				CourseID:        courseID,
				Mode:            course.ModeVerified,
				UpgradeDeadline: &deadlineStr,
			}),
		},
		{
			name: "Deadline passed", token: getToken(t, expired), wantCode: http.StatusOK,
			extra: true, // deadline formatting differs per user; only check flags below
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = path

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.extra != nil {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var resp echoapi.UpsellResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if resp.CanShowUpsell {
					t.Error("failed! CanShowUpsell = true; want false")
				}
				if resp.UpgradeURL != "" {
					t.Errorf("failed! UpgradeURL = %q; want empty", resp.UpgradeURL)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Not enrolled", func(t *testing.T) {
		other := user.CreateTestUser(t, usrRepo, "Other", "other", "other@test.cd", "", []string{user.RoleStudent}, true)
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, other))
		app.ServeHTTP(rec, req)
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.UpsellResponse{CourseID: courseID}),
		}
		checkCodeAndData(t, tt, rec)
	})
}
