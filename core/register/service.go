package register

import (
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// ErrMisconfigured is returned when the settings name no buildable required
// field; an empty progressive-profiling form is a deployment bug, not a valid
// response.
var ErrMisconfigured = errors.New("required registration fields are configured incorrectly")

type (
	// RequiredFields is the assembled progressive-profiling form.
	RequiredFields struct {
		Fields          map[string]Field `json:"fields"`
		ExtendedProfile []string         `json:"extended_profile"`
	}

	Service struct {
		conf core.RegistrationConfig
	}
)

func NewService(conf core.RegistrationConfig) *Service {
	return &Service{conf: conf}
}

// RequiredFields builds the form fields configured "required" in settings.
// Each field comes out of the startup-resolved builder table; a required
// field with no builder fails the whole call.
func (s *Service) RequiredFields() (RequiredFields, error) {
	if len(s.conf.ExtraFields) == 0 {
		return RequiredFields{}, ErrMisconfigured
	}

	tosSetting := s.conf.ExtraFields["terms_of_service"]
	fields := make(map[string]Field)
	for name, setting := range s.conf.ExtraFields {
		if setting != SettingRequired {
			continue
		}
		build, ok := builders[name]
		if !ok {
			return RequiredFields{}, errors.Wrapf(ErrMisconfigured, "no builder for field %q", name)
		}
		fields[name] = build(tosSetting)
	}
	if len(fields) == 0 {
		return RequiredFields{}, ErrMisconfigured
	}

	extended := s.conf.ExtendedProfileFields
	if extended == nil {
		extended = []string{}
	}
	return RequiredFields{Fields: fields, ExtendedProfile: extended}, nil
}
