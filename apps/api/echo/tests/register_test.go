package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/register"
	"github.com/trezcool/darasa/core/user"
)

func Test_registrationApi_requiredFields(t *testing.T) {
	db.Reset()

	student := user.CreateTestUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/registration/required-fields")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Required fields assembled", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/registration/required-fields", getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}

		var resp register.RequiredFields
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		for _, name := range []string{"name", "country", "honor_code"} {
			fld, ok := resp.Fields[name]
			if !ok {
				t.Errorf("failed! missing field %q", name)
				continue
			}
			if !fld.Required {
				t.Errorf("failed! field %q not marked required", name)
			}
		}
		if _, ok := resp.Fields["gender"]; ok {
			t.Error("failed! optional field 'gender' included")
		}
		if resp.ExtendedProfile == nil {
			t.Error("failed! ExtendedProfile is null; want []")
		}
	})
}
