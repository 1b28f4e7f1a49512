package tests

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trezcool/darasa/core/user"
)

func seedAsset(t *testing.T, org, course, name string, data []byte) {
	t.Helper()
	if _, err := contentSvc.Save(context.Background(), org, course, name, "application/octet-stream", bytes.NewReader(data)); err != nil {
		t.Fatalf("contentSvc.Save(): %v", err)
	}
}

func assetData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func Test_contentApi_serve(t *testing.T) {
	db.Reset()

	data := assetData(3000)
	seedAsset(t, "edX", "Demo", "data.bin", data)
	path := "/v1/assets/c4x/edX/Demo/asset/data.bin"

	tests := []struct {
		name             string
		rangeHdr         string
		wantCode         int
		wantBody         []byte
		wantContentRange string
	}{
		{name: "full body", wantCode: http.StatusOK, wantBody: data},
		{
			name: "range within body", rangeHdr: "bytes=100-1500", wantCode: http.StatusPartialContent,
			wantBody: data[100:1501], wantContentRange: "bytes 100-1500/3000",
		},
		{
			name: "open-ended range", rangeHdr: "bytes=2900-", wantCode: http.StatusPartialContent,
			wantBody: data[2900:], wantContentRange: "bytes 2900-2999/3000",
		},
		{
			name: "suffix range", rangeHdr: "bytes=-500", wantCode: http.StatusPartialContent,
			wantBody: data[2500:], wantContentRange: "bytes 2500-2999/3000",
		},
		{
			name: "range end clamped to body", rangeHdr: "bytes=2500-9999", wantCode: http.StatusPartialContent,
			wantBody: data[2500:], wantContentRange: "bytes 2500-2999/3000",
		},
		{
			name: "single byte", rangeHdr: "bytes=0-0", wantCode: http.StatusPartialContent,
			wantBody: data[:1], wantContentRange: "bytes 0-0/3000",
		},
		{
			name: "start beyond body", rangeHdr: "bytes=3000-", wantCode: http.StatusRequestedRangeNotSatisfiable,
			wantContentRange: "bytes */3000",
		},
		{
			name: "empty suffix", rangeHdr: "bytes=-0", wantCode: http.StatusRequestedRangeNotSatisfiable,
			wantContentRange: "bytes */3000",
		},
		{name: "unknown unit ignored", rangeHdr: "chunks=1-2", wantCode: http.StatusOK, wantBody: data},
		{name: "garbage ignored", rangeHdr: "bytes=lol", wantCode: http.StatusOK, wantBody: data},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, path)
			if tt.rangeHdr != "" {
				req.Header.Set("Range", tt.rangeHdr)
			}
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantContentRange {
				t.Errorf("failed! Content-Range = %q; want %q", got, tt.wantContentRange)
			}
			if tt.wantBody != nil {
				if got := rec.Header().Get("Content-Length"); got != fmt.Sprint(len(tt.wantBody)) {
					t.Errorf("failed! Content-Length = %q; want %d", got, len(tt.wantBody))
				}
				if !bytes.Equal(rec.Body.Bytes(), tt.wantBody) {
					t.Errorf("failed! body len = %d; want %d", rec.Body.Len(), len(tt.wantBody))
				}
				if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
					t.Errorf("failed! Accept-Ranges = %q; want %q", got, "bytes")
				}
			}
		})
	}

	t.Run("unknown asset", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/assets/c4x/edX/Demo/asset/lol.bin")
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("HEAD has headers but no body", func(t *testing.T) {
		req, rec := newRequest(http.MethodHead, path)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("Content-Length"); got != "3000" {
			t.Errorf("failed! Content-Length = %q; want %q", got, "3000")
		}
		if rec.Body.Len() != 0 {
			t.Errorf("failed! body len = %d; want 0", rec.Body.Len())
		}
	})

	t.Run("not modified since", func(t *testing.T) {
		// fetch the stored Last-Modified first
		probe, probeRec := newRequest(http.MethodHead, path)
		app.ServeHTTP(probeRec, probe)

		req, rec := newRequest(http.MethodGet, path)
		req.Header.Set("If-Modified-Since", probeRec.Header().Get("Last-Modified"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotModified {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotModified)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("failed! body len = %d; want 0", rec.Body.Len())
		}
	})
}

func newUploadRequest(t *testing.T, path, token, filename string, data []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile(): %v", err)
	}
	if _, err = fw.Write(data); err != nil {
		t.Fatalf("Write(): %v", err)
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func Test_contentApi_upload(t *testing.T) {
	db.Reset()

	student := user.CreateTestUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := user.CreateTestUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	path := "/v1/assets/edX/Demo"
	data := assetData(2048)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, "", "notes.txt", data)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Staff required", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, getToken(t, student), "notes.txt", data)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Missing file", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Uploaded and served back", func(t *testing.T) {
		req, rec := newUploadRequest(t, path, getToken(t, teacher), "my notes.txt", data)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		// the unsafe space in the filename is sanitized
		getReq, getRec := newRequest(http.MethodGet, "/v1/assets/c4x/edX/Demo/asset/my_notes.txt")
		app.ServeHTTP(getRec, getReq)
		if getRec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", getRec.Code, http.StatusOK)
		}
		if !bytes.Equal(getRec.Body.Bytes(), data) {
			t.Errorf("failed! served body differs from upload")
		}
	})
}

func Test_contentApi_listAndDelete(t *testing.T) {
	db.Reset()

	student := user.CreateTestUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := user.CreateTestUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	seedAsset(t, "edX", "Demo", "a.bin", assetData(10))
	seedAsset(t, "edX", "Demo", "b.bin", assetData(20))
	seedAsset(t, "edX", "Other", "c.bin", assetData(30))

	listPath := "/v1/assets/edX/Demo"

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, listPath)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("List course assets", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, listPath, getToken(t, student))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		assets, err := contentSvc.Find(context.Background(), "edX", "Demo")
		if err != nil {
			t.Fatalf("contentSvc.Find(): %v", err)
		}
		if len(assets) != 2 {
			t.Errorf("failed! len(assets) = %d; want 2", len(assets))
		}
	})

	t.Run("Staff required to delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/assets/c4x/edX/Demo/asset/a.bin", getToken(t, student))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Deleted asset no longer served", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/assets/c4x/edX/Demo/asset/a.bin", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		getReq, getRec := newRequest(http.MethodGet, "/v1/assets/c4x/edX/Demo/asset/a.bin")
		app.ServeHTTP(getRec, getReq)
		if getRec.Code != http.StatusNotFound {
			t.Fatalf("failed! code = %v; wantCode %v", getRec.Code, http.StatusNotFound)
		}
	})
}
