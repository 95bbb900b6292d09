package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/auth"
	"docchat-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	h := NewHandler(svc)
	h.RegisterPublicRoutes(api)
	protected := api.Group("")
	protected.Use(middleware.Auth(svc.Signer.(*auth.Signer)))
	h.RegisterRoutes(protected)
	return r
}

func doJSON(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRegisterAndLoginHandlers(t *testing.T) {
	svc := newTestService(t, "ADMIN1")
	r := newTestRouter(t, svc)

	resp := doJSON(r, http.MethodPost, "/api/v1/register_user/U1", "", gin.H{
		"user_name": "alice", "email": "a@x.com", "password": "p",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("register expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var reg map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &reg)
	if reg["uuid"] != "U1" || reg["user_name"] != "alice" || reg["registration_date"] == nil {
		t.Fatalf("unexpected register body %v", reg)
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/register_user/U1", "", gin.H{
		"user_name": "alice", "email": "other@x.com", "password": "p",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate expected 409, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/register_user/U2", "", gin.H{
		"user_name": "bob", "email": "not-an-email", "password": "p",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad email expected 400, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/login", "", gin.H{"identifier": "a@x.com", "password": "p"})
	if resp.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var login loginResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.TokenType != "bearer" || login.AccessToken == "" {
		t.Fatalf("unexpected login body %+v", login)
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/get_users", login.AccessToken, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("non-admin get_users expected 403, got %d", resp.Code)
	}
}

func TestGetUsersForAdmin(t *testing.T) {
	svc := newTestService(t, "ADMIN1")
	r := newTestRouter(t, svc)

	doJSON(r, http.MethodPost, "/api/v1/register_user/ADMIN1", "", gin.H{"user_name": "root", "email": "root@x.com", "password": "pw"})
	doJSON(r, http.MethodPost, "/api/v1/register_user/U1", "", gin.H{"user_name": "alice", "email": "a@x.com", "password": "p"})

	resp := doJSON(r, http.MethodPost, "/api/v1/login", "", gin.H{"identifier": "root@x.com", "password": "pw"})
	var login loginResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &login)

	resp = doJSON(r, http.MethodGet, "/api/v1/get_users", login.AccessToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out listUsersResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalUsers != 2 || len(out.UUIDs) != 2 {
		t.Fatalf("unexpected body %+v", out)
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/get_users", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing token expected 401, got %d", resp.Code)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	svc := newTestService(t)
	r := newTestRouter(t, svc)

	doJSON(r, http.MethodPost, "/api/v1/register_user/U1", "", gin.H{"user_name": "alice", "email": "A@x.com", "password": "p"})
	resp := doJSON(r, http.MethodPost, "/api/v1/login", "", gin.H{"identifier": "alice", "password": "p"})
	var login loginResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &login)

	resp = doJSON(r, http.MethodGet, "/api/v1/me", login.AccessToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var me meResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.UUID != "U1" || me.Email != "a@x.com" || me.Role != "user" {
		t.Fatalf("unexpected profile %+v", me)
	}
}
