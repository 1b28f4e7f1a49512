package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/finaid"
	"github.com/trezcool/darasa/core/user"
)

type finAidApi struct {
	svc       *finaid.Service
	courseSvc *course.Service
	usrSvc    *user.Service
}

func registerFinAidAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *finaid.Service, courseSvc *course.Service, usrSvc *user.Service) {
	api := finAidApi{svc: svc, courseSvc: courseSvc, usrSvc: usrSvc}

	fg := g.Group("/finaid", jwt)
	fg.GET("/courses/:id/eligibility", api.eligibility)
	fg.GET("/applications/status", api.applicationStatus)
	fg.POST("/applications", api.createApplication)
}

// Handlers

func (api *finAidApi) eligibility(ctx echo.Context) error {
	courseID := ctx.Param("id")
	if !api.svc.BackendEnabledForCourse(courseID) {
		return finaid.ErrDisabled
	}

	elig, err := api.svc.CourseEligibility(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "checking course eligibility")
	}
	return ctx.JSON(http.StatusOK, elig)
}

func (api *finAidApi) applicationStatus(ctx echo.Context) error {
	courseID := ctx.QueryParam("course_id")
	if courseID == "" {
		return core.NewValidationError(errors.New("course_id is required"))
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	status, err := api.svc.ApplicationStatus(ctx.Request().Context(), claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "fetching application status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *finAidApi) createApplication(ctx echo.Context) error {
	var app finaid.Application
	if err := ctx.Bind(&app); err != nil {
		return errors.Wrap(err, "binding to Application")
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	app.UserID = usr.ID // the applicant is always the caller

	if err = app.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	if !api.svc.BackendEnabledForCourse(app.CourseID) {
		return finaid.ErrDisabled
	}

	if err = api.svc.CreateApplication(ctx.Request().Context(), usr, app); err != nil {
		return errors.Wrap(err, "creating application")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Financial assistance application submitted."})
}
