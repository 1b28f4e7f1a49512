package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
)

// Form field types understood by the authn frontend.
const (
	TypeText     = "text"
	TypeSelect   = "select"
	TypeTextarea = "textarea"
	TypeCheckbox = "checkbox"
)

// Registration extra-field settings.
const (
	SettingRequired = "required"
	SettingOptional = "optional"
	SettingHidden   = "hidden"
)

type (
	// Option is one choice of a select field.
	Option struct {
		Value   string `json:"value"`
		Name    string `json:"name"`
		Default bool   `json:"default,omitempty"`
	}

	// Field describes one input of the progressive-profiling form.
	Field struct {
		Name         string   `json:"name"`
		Label        string   `json:"label"`
		Type         string   `json:"type"`
		Required     bool     `json:"required"`
		ErrorMessage string   `json:"error_message,omitempty"`
		Options      []Option `json:"options,omitempty"`
	}

	// Builder constructs the payload of one form field. The terms-of-service
	// setting is passed through so the honor-code field can adapt.
	Builder func(tosSetting string) Field
)

// builders maps field names to their construction functions. The table is
// fixed at startup; RegisterFieldBuilder extends it before serving begins.
var builders = map[string]Builder{
	"name":               nameField,
	"country":            countryField,
	"gender":             genderField,
	"year_of_birth":      yearOfBirthField,
	"level_of_education": levelOfEducationField,
	"goals":              goalsField,
	"profession":         professionField,
	"specialty":          specialtyField,
	"honor_code":         honorCodeField,
}

// RegisterFieldBuilder adds or replaces a form-field builder. Call during
// startup only, the table is not safe for concurrent mutation.
func RegisterFieldBuilder(name string, b Builder) { builders[name] = b }

func nameField(string) Field {
	return Field{
		Name:         "name",
		Label:        "Full name",
		Type:         TypeText,
		Required:     true,
		ErrorMessage: "Enter your full name",
	}
}

func countryField(string) Field {
	LoadCountries(nil)
	return Field{
		Name:         "country",
		Label:        "Country or region of residence",
		Type:         TypeSelect,
		Required:     true,
		ErrorMessage: "Select your country or region of residence",
		Options:      countries,
	}
}

func genderField(string) Field {
	return Field{
		Name:     "gender",
		Label:    "Gender",
		Type:     TypeSelect,
		Required: true,
		Options: []Option{
			{Value: "m", Name: "Male"},
			{Value: "f", Name: "Female"},
			{Value: "o", Name: "Other/Prefer not to say"},
		},
	}
}

func yearOfBirthField(string) Field {
	current := time.Now().Year()
	opts := make([]Option, 0, 120)
	for y := current; y > current-120; y-- {
		s := strconv.Itoa(y)
		opts = append(opts, Option{Value: s, Name: s})
	}
	return Field{
		Name:     "year_of_birth",
		Label:    "Year of birth",
		Type:     TypeSelect,
		Required: true,
		Options:  opts,
	}
}

func levelOfEducationField(string) Field {
	return Field{
		Name:     "level_of_education",
		Label:    "Highest level of education completed",
		Type:     TypeSelect,
		Required: true,
		Options: []Option{
			{Value: "p", Name: "Doctorate"},
			{Value: "m", Name: "Master's or professional degree"},
			{Value: "b", Name: "Bachelor's degree"},
			{Value: "a", Name: "Associate degree"},
			{Value: "hs", Name: "Secondary/high school"},
			{Value: "jhs", Name: "Junior secondary/junior high/middle school"},
			{Value: "el", Name: "Elementary/primary school"},
			{Value: "none", Name: "No formal education"},
			{Value: "other", Name: "Other education"},
		},
	}
}

func goalsField(string) Field {
	return Field{
		Name:     "goals",
		Label:    "Tell us why you're interested in learning online",
		Type:     TypeTextarea,
		Required: true,
	}
}

func professionField(string) Field {
	return Field{
		Name:     "profession",
		Label:    "Profession",
		Type:     TypeText,
		Required: true,
	}
}

func specialtyField(string) Field {
	return Field{
		Name:     "specialty",
		Label:    "Specialty",
		Type:     TypeText,
		Required: true,
	}
}

// honorCodeField folds the terms of service into the honor code label unless
// terms_of_service is shown as its own field.
func honorCodeField(tosSetting string) Field {
	label := "I agree to the Honor Code and Terms of Service"
	if tosSetting == SettingRequired || tosSetting == SettingOptional {
		label = "I agree to the Honor Code"
	}
	return Field{
		Name:         "honor_code",
		Label:        label,
		Type:         TypeCheckbox,
		Required:     true,
		ErrorMessage: "You must agree to the Honor Code to register",
	}
}

var (
	countries         []Option
	countriesLoadOnce sync.Once
)

// LoadCountries loads the country options list into memory. It is called
// lazily by the country field builder; apps may call it upfront at startup.
func LoadCountries(logger core.Logger) {
	countriesLoadOnce.Do(func() {
		if err := loadCountries(); err != nil && logger != nil {
			logger.Warn(fmt.Sprintf("loading countries: %v", err), err)
		}
	})
}

func loadCountries() error {
	path := filepath.Join(core.Conf.WorkDir, "assets", "countries.json")
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	var entries []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err = json.NewDecoder(file).Decode(&entries); err != nil {
		return err
	}

	countries = make([]Option, 0, len(entries))
	for _, entry := range entries {
		countries = append(countries, Option{Value: entry.Code, Name: entry.Name})
	}
	return nil
}
