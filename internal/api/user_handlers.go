package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-lists/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the signed-in user",
		Tags:        []string{"Users"},
		Security:    sessionSecurity,
	}, s.handleGetCurrentUser)
}

// UserResponse contains user data in API responses. Credentials are never included.
type UserResponse struct {
	ID          string            `json:"id" doc:"User ID"`
	Username    string            `json:"username" doc:"Username"`
	DisplayName string            `json:"display_name,omitempty" doc:"Name from the identity provider"`
	Method      domain.AuthMethod `json:"auth_method" doc:"How the current session was established: local or google"`
	Federated   bool              `json:"federated" doc:"Whether the account was created through Google sign-in"`
	CreatedAt   time.Time         `json:"created_at" doc:"Account creation time"`
	LastLoginAt time.Time         `json:"last_login_at" doc:"Last sign-in time"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	resp := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Federated:   user.IsFederated(),
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
	if sess, ok := currentSession(ctx); ok {
		resp.Method = sess.Method
	}

	return &UserOutput{Body: resp}, nil
}
