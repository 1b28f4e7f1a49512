package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type courseApi struct {
	svc    *course.Service
	usrSvc *user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, usrSvc *user.Service) {
	api := courseApi{svc: svc, usrSvc: usrSvc}

	cg := g.Group("/courses", jwt)
	cg.GET("/:id/upsell", api.upsell)
}

type UpsellResponse struct {
	CourseID        string  `json:"course_id"`
	Mode            string  `json:"mode"`
	CanShowUpsell   bool    `json:"can_show_upsell"`
	UpgradeDeadline *string `json:"upgrade_deadline"`
	UpgradeURL      string  `json:"upgrade_url"`
}

// Handlers

func (api *courseApi) upsell(ctx echo.Context) error {
	courseID, err := url.PathUnescape(ctx.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	enr, err := api.svc.Enrollment(ctx.Request().Context(), usr, courseID)
	if err != nil {
		return errors.Wrap(err, "looking up enrollment")
	}

	resp := UpsellResponse{CourseID: courseID}
	if enr != nil {
		resp.Mode = enr.Mode
		if enr.UpgradeDeadline != nil {
			deadline := enr.UpgradeDeadline.UTC().Format("2006-01-02T15:04:05Z")
			resp.UpgradeDeadline = &deadline
		}
	}

	if course.CanShowVerifiedUpgrade(usr, enr) {
		link, err := api.svc.VerifiedUpgradeDeadlineLink(ctx.Request().Context(), usr, courseID)
		if err != nil && errors.Cause(err) != course.ErrModeNotFound {
			return errors.Wrap(err, "building upgrade link")
		}
		resp.CanShowUpsell = link != ""
		resp.UpgradeURL = link
	}

	return ctx.JSON(http.StatusOK, resp)
}
