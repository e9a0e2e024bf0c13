package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/sksmith/reservation-engine/api"
	"github.com/sksmith/reservation-engine/core/user"
)

func setupUserTestServer() (*httptest.Server, *user.MockUserService) {
	mockSvc := user.NewMockUserService()
	userApi := api.NewUserApi(&mockSvc)
	r := chi.NewRouter()
	userApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

func TestUserCreate(t *testing.T) {
	ts, mockSvc := setupUserTestServer()
	defer ts.Close()

	adminLogin := func(ctx context.Context, username, password string) (user.User, error) {
		return user.User{Username: username, IsAdmin: true}, nil
	}

	tests := []struct {
		name string

		loginFunc func(ctx context.Context, username, password string) (user.User, error)
		auth      *basicAuth
		request   *api.CreateUserRequestDto

		wantCreateCnt  int
		wantStatusCode int
	}{
		{
			name:      "admin creates a picker account",
			loginFunc: adminLogin,
			auth:      &basicAuth{username: "admin", password: "admin"},
			request: &api.CreateUserRequestDto{
				CreateUserRequest: &user.CreateUserRequest{Username: "picker1"},
				Password:          "secret",
			},
			wantCreateCnt:  1,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "no credentials",
			request: &api.CreateUserRequestDto{
				CreateUserRequest: &user.CreateUserRequest{Username: "picker1"},
				Password:          "secret",
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "non-admin cannot create users",
			loginFunc: func(ctx context.Context, username, password string) (user.User, error) {
				return user.User{Username: username}, nil
			},
			auth: &basicAuth{username: "picker", password: "picker"},
			request: &api.CreateUserRequestDto{
				CreateUserRequest: &user.CreateUserRequest{Username: "picker2"},
				Password:          "secret",
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:      "username is required",
			loginFunc: adminLogin,
			auth:      &basicAuth{username: "admin", password: "admin"},
			request: &api.CreateUserRequestDto{
				Password: "secret",
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:      "password is required",
			loginFunc: adminLogin,
			auth:      &basicAuth{username: "admin", password: "admin"},
			request: &api.CreateUserRequestDto{
				CreateUserRequest: &user.CreateUserRequest{Username: "picker1"},
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			createCnt := 0
			mockSvc.CreateFunc = func(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
				createCnt++
				if req.PlainTextPassword == "" {
					t.Error("plain text password not carried into the create request")
				}
				return user.User{Username: req.Username}, nil
			}
			if tc.loginFunc != nil {
				mockSvc.LoginFunc = tc.loginFunc
			}

			res := send(http.MethodPost, ts.URL+"/", tc.request, tc.auth, t)

			if res.StatusCode != tc.wantStatusCode {
				t.Errorf("status code got=%d want=%d", res.StatusCode, tc.wantStatusCode)
			}
			if createCnt != tc.wantCreateCnt {
				t.Errorf("create count got=%d want=%d", createCnt, tc.wantCreateCnt)
			}
		})
	}
}
