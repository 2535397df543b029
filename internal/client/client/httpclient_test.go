package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/client/models"
	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", 5*time.Second)
}

func TestLogin_StoresTokenForLaterCalls(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "alice@example.com", in["email"])
			assert.Equal(t, "pw123456", in["password"])
			io.WriteString(w, `{"token":"tok-1","user":{"id":"u1","fullname":"Alice","email":"alice@example.com"}}`)
		case "/api/profile":
			gotAuth = r.Header.Get("Authorization")
			io.WriteString(w, `{"_id":"u1","fullname":"Alice","email":"alice@example.com"}`)
		}
	})

	s, err := c.Login(context.Background(), "alice@example.com", []byte("pw123456"))
	require.NoError(t, err)
	assert.Equal(t, "u1", s.User.ID)

	u, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FullName)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	c.Logout()
	_, err = c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		text     string
	}{
		{"unauthorized", 401, `{"message":"Invalid token"}`, ErrUnauthorized, "Invalid token"},
		{"not found", 404, `{"message":"Health record not found"}`, common.ErrorNotFound, "Health record not found"},
		{"validation", 400, `{"message":"Validation failed","error":"x","fields":{"age":"is required","gender":"must be one of Male, Female, Other"}}`, nil,
			"Validation failed (age is required; gender must be one of Male, Female, Other)"},
		{"detail", 400, `{"message":"File too large","error":"The uploaded file exceeds the 10MB size limit."}`, nil,
			"File too large: The uploaded file exceeds the 10MB size limit."},
		{"not json", 502, `<html>bad gateway</html>`, nil, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			c.setToken("t")

			_, err := c.GetRecord(context.Background(), "id")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.text, err.Error())
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)

	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestCreateRecord_SendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/health-records", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "checkup", r.FormValue("purpose"))

		f, h, err := r.FormFile(common.MedicalReportField)
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "scan.pdf", h.Filename)
		assert.Equal(t, "%PDF", string(b))

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"Health record created successfully","record":{"_id":"r1","purpose":"checkup","medicalReportName":"scan.pdf"}}`)
	})
	c.setToken("t")

	rec, err := c.CreateRecord(context.Background(), map[string]string{"purpose": "checkup"},
		&Attachment{FileName: "scan.pdf", Content: strings.NewReader("%PDF")})

	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.True(t, rec.HasReport())
}

func TestUpdateRecord_UsesPut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/health-records/r1", r.URL.Path)
		io.WriteString(w, `{"message":"Health record updated successfully","record":{"_id":"r1","weight":60}}`)
	})
	c.setToken("t")

	rec, err := c.UpdateRecord(context.Background(), "r1", map[string]string{"weight": "60"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 60.0, rec.Weight)
}

func TestListAndDelete(t *testing.T) {
	deleted := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `[{"_id":"b"},{"_id":"a"}]`)
		case http.MethodDelete:
			deleted = r.URL.Path == "/api/health-records/a"
			io.WriteString(w, `{"message":"Health record deleted successfully"}`)
		}
	})
	c.setToken("t")

	recs, err := c.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Record{{ID: "b"}, {ID: "a"}}, recs)

	require.NoError(t, c.DeleteRecord(context.Background(), "a"))
	assert.True(t, deleted)
}

func TestDownloadReport(t *testing.T) {
	content := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health-records/r1/report", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename*=utf-8''%C3%A9t%C3%A9.pdf`)
		w.Write(content)
	})
	c.setToken("t")

	var buf bytes.Buffer
	name, err := c.DownloadReport(context.Background(), "r1", &buf)

	require.NoError(t, err)
	assert.Equal(t, "été.pdf", name)
	assert.Equal(t, content, buf.Bytes())
}

func TestRegister(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var in models.Registration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Email == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"message":"User already exists"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"message":"User created successfully"}`)
	})

	require.NoError(t, c.Register(context.Background(), models.Registration{Email: "new@example.com"}))

	err := c.Register(context.Background(), models.Registration{Email: "taken@example.com"})
	assert.EqualError(t, err, "User already exists")
}
