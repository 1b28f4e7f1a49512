package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/register"
)

type registrationApi struct {
	svc *register.Service
}

func registerRegistrationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *register.Service) {
	api := registrationApi{svc: svc}

	rg := g.Group("/registration", jwt)
	rg.GET("/required-fields", api.requiredFields)
}

// Handlers

func (api *registrationApi) requiredFields(ctx echo.Context) error {
	fields, err := api.svc.RequiredFields()
	if err != nil {
		if errors.Cause(err) == register.ErrMisconfigured {
			return ctx.JSON(http.StatusBadRequest, echo.Map{"error_code": "required_fields_configured_incorrectly"})
		}
		return errors.Wrap(err, "assembling required fields")
	}
	return ctx.JSON(http.StatusOK, fields)
}
