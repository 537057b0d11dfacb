package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	mw "github.com/scidsg/hushline/internal/api/middleware"
	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/model"
)

const testUserID = "b0a8c9a2-6f3e-4a55-9cf4-2f1b8f3d0c11"

// newFormRequest creates a request with an urlencoded body.
func newFormRequest(method, target string, values url.Values) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// withChiURLParam adds a chi URL parameter to the request context.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withSession injects session claims for the test user.
func withSession(r *http.Request) *http.Request {
	claims := &model.SessionClaims{Username: "newsroom"}
	claims.Subject = testUserID
	claims.ID = "session-1"
	return r.WithContext(mw.WithClaims(r.Context(), claims))
}

type stubCSRF struct{}

func (stubCSRF) CSRFToken(*model.SessionClaims) string { return "csrf-test-token" }

type stubPages struct {
	name string
	data map[string]any
	err  error
}

func (p *stubPages) Render(name string, data map[string]any) ([]byte, error) {
	p.name = name
	p.data = data
	if p.err != nil {
		return nil, p.err
	}
	return []byte("<html>" + name + "</html>"), nil
}

type mockSettings struct {
	mock.Mock
}

func (m *mockSettings) View(ctx context.Context, userID string) (*core.SettingsView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.SettingsView), args.Error(1)
}

func (m *mockSettings) UpdatePGPKey(ctx context.Context, userID, armored string) error {
	return m.Called(ctx, userID, armored).Error(0)
}

func (m *mockSettings) ImportProtonKey(ctx context.Context, userID, email string) error {
	return m.Called(ctx, userID, email).Error(0)
}

func (m *mockSettings) UpdateEmailForwarding(ctx context.Context, userID string, in core.ForwardingInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

type mockAuthenticator struct {
	mock.Mock
	stubCSRF
}

func (m *mockAuthenticator) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

type mockRecipients struct {
	mock.Mock
}

func (m *mockRecipients) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, username, content string) (*core.SubmitResult, error) {
	args := m.Called(ctx, username, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*core.SubmitResult), args.Error(1)
}
