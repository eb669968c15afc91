package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mockrepositories "github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/repositories"
	authproviders "github.com/cbodonnell/tether/pkg/auth/providers"
	"github.com/cbodonnell/tether/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const aliceSnapshot = `{"avatar":{"instanceId":"a1"},"apps":[{"instanceId":"a1","contentId":"body.glb"}]}`

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		setup      func(r *mockrepositories.Repository)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing token",
			method:     http.MethodGet,
			path:       "/players/alice/snapshot",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown token",
			method:     http.MethodGet,
			path:       "/players/alice/snapshot",
			token:      "guess",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "someone else's snapshot",
			method:     http.MethodGet,
			path:       "/players/bob/snapshot",
			token:      "ta",
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "get",
			method: http.MethodGet,
			path:   "/players/alice/snapshot",
			token:  "ta",
			setup: func(r *mockrepositories.Repository) {
				r.EXPECT().LoadPlayerSnapshot(mock.Anything, "alice").Return(&repositories.PlayerSnapshot{
					PlayerID: "alice", Snapshot: aliceSnapshot, Timestamp: 5,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   aliceSnapshot,
		},
		{
			name:   "get missing",
			method: http.MethodGet,
			path:   "/players/alice/snapshot",
			token:  "ta",
			setup: func(r *mockrepositories.Repository) {
				r.EXPECT().LoadPlayerSnapshot(mock.Anything, "alice").Return(nil, &repositories.ErrNotFound{})
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "get failure",
			method: http.MethodGet,
			path:   "/players/alice/snapshot",
			token:  "ta",
			setup: func(r *mockrepositories.Repository) {
				r.EXPECT().LoadPlayerSnapshot(mock.Anything, "alice").Return(nil, errors.New("disk on fire"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "put",
			method: http.MethodPut,
			path:   "/players/alice/snapshot",
			token:  "ta",
			body:   aliceSnapshot,
			setup: func(r *mockrepositories.Repository) {
				r.EXPECT().SavePlayerSnapshot(mock.Anything, "alice", aliceSnapshot, mock.AnythingOfType("int64")).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "put invalid",
			method:     http.MethodPut,
			path:       "/players/alice/snapshot",
			token:      "ta",
			body:       `{"avatar":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "method not allowed",
			method:     http.MethodDelete,
			path:       "/players/alice/snapshot",
			token:      "ta",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			path:       "/players/alice/snapshot",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			path:       "/healthz",
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := mockrepositories.NewRepository(t)
			if tt.setup != nil {
				tt.setup(repository)
			}
			router := NewRouter(NewAPIServerOptions{
				AllowOrigin: "*",
				AuthProvider: authproviders.NewStaticAuthProvider(&authproviders.NewStaticAuthProviderOptions{
					Tokens: map[string]string{"ta": "alice"},
				}),
				Repository: repository,
			})

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}
