package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/core"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRespondError_LogsTechnicalDetail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLevel  string
		wantCode   string
	}{
		{
			name:       "known error",
			err:        fmt.Errorf("lookup abc: %w", core.ErrDatasetNotFound),
			wantStatus: http.StatusNotFound,
			wantLevel:  "WARN",
			wantCode:   "DS001",
		},
		{
			name:       "unknown error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "ERROR",
			wantCode:   "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			logs := captureLogs(t)

			req := httptest.NewRequest(http.MethodGet, "/api/datasets/abc", nil)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()
			s.respondError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var entry struct {
				Level string `json:"level"`
				Error string `json:"error"`
				Code  string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.err.Error(), entry.Error)
			assert.Equal(t, tt.wantCode, entry.Code)
		})
	}
}
