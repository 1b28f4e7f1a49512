package finaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// ErrDisabled is returned by every operation while the financial assistance
// backend is switched off in configuration.
var ErrDisabled = errors.New("financial assistance is not enabled")

type Service struct {
	client  *http.Client
	mailSvc core.EmailService
}

// NewService builds the proxy to the standalone financial-assistance service.
// Requests authenticate with OAuth2 client credentials; tokens are fetched
// and refreshed transparently.
func NewService(mailSvc core.EmailService) *Service {
	cc := clientcredentials.Config{
		ClientID:     core.Conf.FinAid.ClientID,
		ClientSecret: core.Conf.FinAid.ClientSecret,
		TokenURL:     core.Conf.FinAid.TokenURL,
	}
	client := cc.Client(context.Background())
	client.Timeout = 30 * time.Second
	return &Service{client: client, mailSvc: mailSvc}
}

// Enabled reports whether the backend is switched on in configuration.
func (s *Service) Enabled() bool { return core.Conf.FinAid.Enabled }

// BackendEnabledForCourse reports whether the percentage rollout admits a
// course. A zero course key never qualifies.
func (s *Service) BackendEnabledForCourse(courseID string) bool {
	return s.Enabled() && course.CourseHashValue(courseID) < core.Conf.FinAid.EnabledCoursesPercentage
}

// CourseEligibility asks the remote service whether a course qualifies for
// financial assistance. A remote 400 means not eligible, with the reason.
func (s *Service) CourseEligibility(ctx context.Context, courseID string) (Eligibility, error) {
	if !s.Enabled() {
		return Eligibility{}, ErrDisabled
	}

	res, err := s.get(ctx, fmt.Sprintf("/core/api/course_eligibility/%s/", url.PathEscape(courseID)))
	if err != nil {
		return Eligibility{}, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var elig Eligibility
		if err = json.NewDecoder(res.Body).Decode(&elig); err != nil {
			return Eligibility{}, errors.Wrap(err, "decoding eligibility")
		}
		return elig, nil
	case http.StatusBadRequest:
		return Eligibility{Reason: decodeMessage(res)}, nil
	default:
		return Eligibility{}, errors.Errorf("financial assistance service returned %s", res.Status)
	}
}

// ApplicationStatus fetches the state of a learner's application for a course.
func (s *Service) ApplicationStatus(ctx context.Context, userID, courseID string) (map[string]interface{}, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	q := url.Values{}
	q.Set("course_id", courseID)
	q.Set("lms_user_id", userID)
	res, err := s.get(ctx, "/core/api/financial_assistance_application/status/?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var status map[string]interface{}
		if err = json.NewDecoder(res.Body).Decode(&status); err != nil {
			return nil, errors.Wrap(err, "decoding application status")
		}
		return status, nil
	case http.StatusBadRequest, http.StatusNotFound:
		return nil, core.NewValidationError(errors.New(decodeMessage(res)))
	default:
		return nil, errors.Errorf("financial assistance service returned %s", res.Status)
	}
}

// CreateApplication submits a new application on behalf of usr and emails
// them a confirmation once the remote service accepts it.
func (s *Service) CreateApplication(ctx context.Context, usr user.User, app Application) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	body, err := json.Marshal(app)
	if err != nil {
		return errors.Wrap(err, "encoding application")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url("/core/api/financial_assistance_applications/"), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling financial assistance service")
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated:
		s.sendConfirmation(usr, app)
		return nil
	case http.StatusBadRequest:
		return core.NewValidationError(errors.New(decodeMessage(res)))
	default:
		return errors.Errorf("financial assistance service returned %s", res.Status)
	}
}

func (s *Service) sendConfirmation(usr user.User, app Application) {
	s.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Financial Assistance Application Received",
		TemplateName: "finaid-application-received",
		TemplateData: struct {
			User     user.User
			CourseID string
		}{
			User:     usr,
			CourseID: app.CourseID,
		},
	})
}

func (s *Service) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(path), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling financial assistance service")
	}
	return res, nil
}

func (s *Service) url(path string) string {
	return strings.TrimSuffix(core.Conf.FinAid.APIURL, "/") + path
}

func decodeMessage(res *http.Response) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil || payload.Message == "" {
		return res.Status
	}
	return payload.Message
}
