package finaid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type fakeEmailService struct {
	mutex sync.Mutex
	sent  []*core.EmailMessage
}

func (svc *fakeEmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()
	svc.sent = append(svc.sent, messages...)
}

func enableFinAid(t *testing.T, apiURL string, percentage int) {
	t.Helper()
	orig := core.Conf.FinAid
	core.Conf.FinAid.Enabled = true
	core.Conf.FinAid.APIURL = apiURL
	core.Conf.FinAid.EnabledCoursesPercentage = percentage
	t.Cleanup(func() { core.Conf.FinAid = orig })
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/core/api/course_eligibility/", func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/core/api/course_eligibility/"), "/")
		switch courseID {
		case "course-v1:edX+DemoX+Demo_Course":
			fmt.Fprint(w, `{"is_eligible": true, "reason": ""}`)
		case "course-v1:edX+Closed+2020":
			fmt.Fprint(w, `{"is_eligible": false, "reason": "Course has ended"}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message": "Invalid course id"}`)
		}
	})
	mux.HandleFunc("/core/api/financial_assistance_application/status/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lms_user_id") == "u1" && q.Get("course_id") == "course-v1:edX+DemoX+Demo_Course" {
			fmt.Fprint(w, `{"id": 7, "status": "IN REVIEW"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "No application found"}`)
	})
	mux.HandleFunc("/core/api/financial_assistance_applications/", func(w http.ResponseWriter, r *http.Request) {
		var app Application
		if err := json.NewDecoder(r.Body).Decode(&app); err != nil || app.Income == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message": "Validation failed"}`)
			return
		}
		fmt.Fprint(w, `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, mailSvc core.EmailService) *Service {
	t.Helper()
	srv := newTestServer(t)
	enableFinAid(t, srv.URL, 50)
	if mailSvc == nil {
		mailSvc = &fakeEmailService{}
	}
	return &Service{client: srv.Client(), mailSvc: mailSvc}
}

func TestService_disabled(t *testing.T) {
	orig := core.Conf.FinAid
	core.Conf.FinAid.Enabled = false
	defer func() { core.Conf.FinAid = orig }()

	ctx := context.Background()
	svc := &Service{client: http.DefaultClient, mailSvc: &fakeEmailService{}}

	if _, err := svc.CourseEligibility(ctx, "course-v1:edX+DemoX+Demo_Course"); err != ErrDisabled {
		t.Errorf("CourseEligibility() error = %v, want ErrDisabled", err)
	}
	if _, err := svc.ApplicationStatus(ctx, "u1", "course-v1:edX+DemoX+Demo_Course"); err != ErrDisabled {
		t.Errorf("ApplicationStatus() error = %v, want ErrDisabled", err)
	}
	if err := svc.CreateApplication(ctx, user.User{ID: "u1"}, Application{}); err != ErrDisabled {
		t.Errorf("CreateApplication() error = %v, want ErrDisabled", err)
	}
	if svc.BackendEnabledForCourse("course-v1:edX+DemoX+Demo_Course") {
		t.Error("BackendEnabledForCourse() = true while disabled")
	}
}

func TestService_BackendEnabledForCourse(t *testing.T) {
	// hash values: demo course = 27, mit course = 99
	svc := newTestService(t, nil) // percentage 50

	if !svc.BackendEnabledForCourse("course-v1:edX+DemoX+Demo_Course") {
		t.Error("BackendEnabledForCourse(demo) = false, want true")
	}
	if svc.BackendEnabledForCourse("course-v1:MITx+6.00x+2012_Fall") {
		t.Error("BackendEnabledForCourse(mit) = true, want false")
	}
	if svc.BackendEnabledForCourse("") {
		t.Error("BackendEnabledForCourse(zero key) = true, want false")
	}
}

func TestService_CourseEligibility(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	elig, err := svc.CourseEligibility(ctx, "course-v1:edX+DemoX+Demo_Course")
	if err != nil {
		t.Fatalf("CourseEligibility() error = %v", err)
	}
	if !elig.IsEligible || elig.Reason != "" {
		t.Errorf("CourseEligibility() = %+v, want eligible", elig)
	}

	elig, err = svc.CourseEligibility(ctx, "course-v1:edX+Closed+2020")
	if err != nil {
		t.Fatalf("CourseEligibility() error = %v", err)
	}
	if elig.IsEligible || elig.Reason != "Course has ended" {
		t.Errorf("CourseEligibility() = %+v, want ineligible with reason", elig)
	}

	// a remote 400 is not eligible either, carrying the remote message
	elig, err = svc.CourseEligibility(ctx, "not-a-course")
	if err != nil {
		t.Fatalf("CourseEligibility() error = %v", err)
	}
	if elig.IsEligible || elig.Reason != "Invalid course id" {
		t.Errorf("CourseEligibility() = %+v, want remote message", elig)
	}
}

func TestService_ApplicationStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	status, err := svc.ApplicationStatus(ctx, "u1", "course-v1:edX+DemoX+Demo_Course")
	if err != nil {
		t.Fatalf("ApplicationStatus() error = %v", err)
	}
	if status["status"] != "IN REVIEW" {
		t.Errorf("ApplicationStatus() = %v, want IN REVIEW", status)
	}

	_, err = svc.ApplicationStatus(ctx, "u2", "course-v1:edX+DemoX+Demo_Course")
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("ApplicationStatus() error = %T, want *core.ValidationError", err)
	}
	if vErr.Error() != "No application found" {
		t.Errorf("ApplicationStatus() error = %q, want remote message", vErr.Error())
	}
}

func TestService_CreateApplication(t *testing.T) {
	ctx := context.Background()
	mailSvc := &fakeEmailService{}
	svc := newTestService(t, mailSvc)
	usr := user.User{ID: "u1", Name: "Jane Learner", Email: "jane@test.test"}

	app := Application{
		UserID:         usr.ID,
		CourseID:       "course-v1:edX+DemoX+Demo_Course",
		Income:         "$25,000 - $40,000",
		LearnerReasons: "I want to learn",
		LearnerGoals:   "Get a certificate",
		LearnerPlans:   "Study daily",
	}
	if err := svc.CreateApplication(ctx, usr, app); err != nil {
		t.Fatalf("CreateApplication() error = %v", err)
	}

	if len(mailSvc.sent) != 1 {
		t.Fatalf("sent emails = %d, want 1", len(mailSvc.sent))
	}
	msg := mailSvc.sent[0]
	if len(msg.To) != 1 || msg.To[0].Address != usr.Email {
		t.Errorf("confirmation recipient = %v, want %s", msg.To, usr.Email)
	}

	// remote rejection carries the message and sends nothing
	err := svc.CreateApplication(ctx, usr, Application{UserID: usr.ID, CourseID: app.CourseID})
	if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Fatalf("CreateApplication() error = %T, want *core.ValidationError", err)
	}
	if len(mailSvc.sent) != 1 {
		t.Errorf("sent emails = %d, want 1", len(mailSvc.sent))
	}
}

func TestApplication_Validate(t *testing.T) {
	app := Application{
		UserID:         "u1",
		CourseID:       "course-v1:edX+DemoX+Demo_Course",
		Income:         " $25,000 - $40,000 ",
		LearnerReasons: "reasons",
		LearnerGoals:   "goals",
		LearnerPlans:   "plans",
	}
	if err := app.Validate(context.Background()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if app.Income != "$25,000 - $40,000" {
		t.Errorf("Income not cleaned: %q", app.Income)
	}

	missing := Application{UserID: "u1", CourseID: "course-v1:edX+DemoX+Demo_Course"}
	if err := missing.Validate(context.Background()); err == nil {
		t.Error("Validate() error = nil, want required-field errors")
	}

	badCourse := app
	badCourse.CourseID = "not a course id"
	if err := badCourse.Validate(context.Background()); err == nil {
		t.Error("Validate() error = nil, want course id error")
	}
}
