package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"pool not found", services.ErrPoolNotFound, http.StatusNotFound},
		{"duplicate participant", services.ErrAlreadyParticipant, http.StatusConflict},
		{"pool full", services.ErrPoolFull, http.StatusConflict},
		{"negative prediction", services.ErrNegativePrediction, http.StatusBadRequest},
		{"invalid transition", services.ErrInvalidTransition, http.StatusBadRequest},
		{"betting closed", services.ErrBettingClosed, http.StatusForbidden},
		{"match already started", services.ErrMatchAlreadyStarted, http.StatusForbidden},
		{"bad credentials", services.ErrAuthInvalidCredentials, http.StatusUnauthorized},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)

			mapServiceErrorToHTTP(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestMapServiceErrorToHTTPWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	wrapped := errors.Join(services.ErrBettingClosed, errors.New("pool bolao-da-copa"))
	mapServiceErrorToHTTP(rec, req, wrapped)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"x","bogus":1}`))

	var dst struct {
		Name string `json:"name"`
	}
	err := readJSON(rec, req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestReadJSONRejectsEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	var dst struct{}
	err := readJSON(rec, req, &dst)
	require.Error(t, err)
	assert.Equal(t, "body must not be empty", err.Error())
}

func TestIDParamRejectsNonNumeric(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/matches/abc", nil)

	_, err := idParam(req, "matchID")
	require.Error(t, err)
}
