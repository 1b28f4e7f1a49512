package finaid

import (
	"context"

	"github.com/trezcool/darasa/core"
)

type (
	// Application is a learner's request for financial assistance, proxied to
	// the standalone service as-is.
	Application struct {
		UserID         string `json:"lms_user_id" validate:"required"`
		CourseID       string `json:"course_id" validate:"required,courseid"`
		Income         string `json:"income" validate:"required,max=255"`
		LearnerReasons string `json:"learner_reasons" validate:"required,max=3000"`
		LearnerGoals   string `json:"learner_goals" validate:"required,max=3000"`
		LearnerPlans   string `json:"learner_plans" validate:"required,max=3000"`
	}

	// Eligibility is the remote verdict on whether a course qualifies.
	Eligibility struct {
		IsEligible bool   `json:"is_eligible"`
		Reason     string `json:"reason"`
	}
)

func (a *Application) Validate(ctx context.Context) error {
	a.Income = core.CleanString(a.Income)
	a.LearnerReasons = core.CleanString(a.LearnerReasons)
	a.LearnerGoals = core.CleanString(a.LearnerGoals)
	a.LearnerPlans = core.CleanString(a.LearnerPlans)
	return core.Validate.Struct(a)
}
