package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/security"
)

const pdfHeader = "%PDF-1.4\n"

// headerExtractor returns the bytes after the PDF header as the document text.
type headerExtractor struct{}

func (headerExtractor) ExtractFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), pdfHeader), nil
}

func testConfig(t *testing.T, databaseURL string) config.Config {
	t.Helper()
	return config.Config{
		Port:              "0",
		Env:               "dev",
		CORSAllowOrigin:   []string{"http://localhost:8501"},
		DatabaseURL:       databaseURL,
		DBConnectAttempts: 1,
		JWTSecret:         "test-secret",
		JWTTTL:            time.Minute,
		JWTIssuer:         "docchat",
		UploadDir:         t.TempDir(),
		MaxUploadBytes:    1 << 20,
		LLMProvider:       "echo",
		LoginRatePerMin:   100,
	}
}

type client struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(method, path, fileName string, content []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		c.t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		c.t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		c.t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp := httptest.NewRecorder()
	c.router.ServeHTTP(resp, req)
	return resp
}

func expectStatus(t *testing.T, step string, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("%s: expected %d, got %d: %s", step, want, resp.Code, resp.Body.String())
	}
}

func TestDocumentChatScenario(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		database func(t *testing.T) string
		dbStatus string
	}{
		{"memory", func(*testing.T) string { return "" }, "memory"},
		{"sqlite", func(t *testing.T) string { return "sqlite://" + filepath.Join(t.TempDir(), "docchat.db") }, "up"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := bootstrap.Build(context.Background(), testConfig(t, tt.database(t)),
				bootstrap.WithExtractor(headerExtractor{}),
				bootstrap.WithHasher(&security.Hasher{Cost: 4}),
			)
			if err != nil {
				t.Fatalf("bootstrap build: %v", err)
			}
			t.Cleanup(func() { _ = app.Close() })

			c := &client{t: t, router: app.Router}

			resp := c.json(http.MethodGet, "/api/v1/health", nil)
			expectStatus(t, "health", resp, http.StatusOK)
			var healthBody map[string]any
			_ = json.Unmarshal(resp.Body.Bytes(), &healthBody)
			if healthBody["db"] != tt.dbStatus {
				t.Fatalf("expected db %q, got %v", tt.dbStatus, healthBody["db"])
			}

			resp = c.json(http.MethodPost, "/api/v1/register_user/U1", gin.H{
				"user_name": "alice", "email": "a@x.com", "password": "p",
			})
			expectStatus(t, "register", resp, http.StatusCreated)

			resp = c.json(http.MethodPost, "/api/v1/login", gin.H{"identifier": "a@x.com", "password": "p"})
			expectStatus(t, "login", resp, http.StatusOK)
			var login struct {
				AccessToken string `json:"access_token"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil || login.AccessToken == "" {
				t.Fatalf("login token missing: %v %s", err, resp.Body.String())
			}
			c.token = login.AccessToken

			resp = c.upload(http.MethodPost, "/api/v1/upload", "doc1.pdf", []byte(pdfHeader+"Hello"))
			expectStatus(t, "upload", resp, http.StatusCreated)

			resp = c.json(http.MethodGet, "/api/v1/query?query="+url.QueryEscape("what does it say"), nil)
			expectStatus(t, "query", resp, http.StatusOK)
			var answer map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &answer); err != nil {
				t.Fatalf("decode query: %v", err)
			}
			if answer["query"] != "what does it say" || !strings.Contains(answer["LLM_response"], "Hello") {
				t.Fatalf("unexpected query body %v", answer)
			}

			resp = c.json(http.MethodDelete, "/api/v1/delete_account", gin.H{"password": "wrong"})
			expectStatus(t, "delete with wrong password", resp, http.StatusUnauthorized)

			resp = c.json(http.MethodDelete, "/api/v1/delete_account", gin.H{"password": "p"})
			expectStatus(t, "delete account", resp, http.StatusCreated)

			c.token = ""
			resp = c.json(http.MethodPost, "/api/v1/login", gin.H{"identifier": "a@x.com", "password": "p"})
			expectStatus(t, "login after delete", resp, http.StatusUnauthorized)
		})
	}
}

func TestUpdateAppendsAcrossRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(context.Background(), testConfig(t, ""),
		bootstrap.WithExtractor(headerExtractor{}),
		bootstrap.WithHasher(&security.Hasher{Cost: 4}),
	)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	c := &client{t: t, router: app.Router}

	expectStatus(t, "register", c.json(http.MethodPost, "/api/v1/register_user/U1", gin.H{
		"user_name": "alice", "email": "a@x.com", "password": "p",
	}), http.StatusCreated)
	resp := c.json(http.MethodPost, "/api/v1/login", gin.H{"identifier": "U1", "password": "p"})
	expectStatus(t, "login", resp, http.StatusOK)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &login)
	c.token = login.AccessToken

	expectStatus(t, "update 1", c.upload(http.MethodPut, "/api/v1/update", "f1.pdf", []byte(pdfHeader+"t1")), http.StatusOK)
	expectStatus(t, "update 2", c.upload(http.MethodPut, "/api/v1/update", "f2.pdf", []byte(pdfHeader+"t2")), http.StatusOK)

	text, err := app.DocumentsService.StoredText(context.Background(), "U1")
	if err != nil {
		t.Fatalf("StoredText: %v", err)
	}
	if text != "t1\n\nt2" {
		t.Fatalf("unexpected stored text %q", text)
	}

	resp = c.json(http.MethodGet, "/metrics", nil)
	expectStatus(t, "metrics", resp, http.StatusOK)
	if !strings.Contains(resp.Body.String(), "docchat_updates_total") {
		t.Fatalf("metrics missing updates counter: %s", resp.Body.String())
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Env = "production"
	if _, err := bootstrap.Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}
