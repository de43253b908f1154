package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"crewbase.org/internal/directory"
	"crewbase.org/internal/token"
)

// fakeHasher keeps handler tests off the real argon2 cost.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "fake$" + password, nil
}

func (fakeHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "fake$"+password, nil
}

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T, opts ...directory.ServiceOption) *apiClient {
	t.Helper()

	repo := directory.NewMemoryRepository(fakeHasher{})
	svc, err := directory.NewService(repo, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	issuer, err := token.NewIssuer([]byte("test-secret"), "crewbase-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	api := New(svc, issuer, ReadyProbe{}, "test")
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	if params != nil {
		path += "?" + params.Encode()
	}
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) delete(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

// signup creates an account through the public endpoint.
func (c *apiClient) signup(email, password, role string) directory.Account {
	c.t.Helper()
	resp := c.post("/v1/auth/signup", map[string]any{
		"email":    email,
		"password": password,
		"role":     role,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("signup %s: unexpected status %d", email, resp.StatusCode)
	}
	return decode[directory.Account](c.t, resp)
}

// signin returns the bearer token for the account.
func (c *apiClient) signin(email, password string) string {
	c.t.Helper()
	resp := c.post("/v1/auth/signin", map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("signin %s: unexpected status %d", email, resp.StatusCode)
	}
	payload := decode[sessionResponse](c.t, resp)
	if payload.Token == "" {
		c.t.Fatal("empty token issued")
	}
	return payload.Token
}

func bearerHeader(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: unexpected status %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "crewbase-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}

	resp = api.get("/readyz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: unexpected status %d", resp.StatusCode)
	}
}

func TestAccountLifecycleFlow(t *testing.T) {
	api := newTestAPI(t)

	admin := api.signup("admin@example.com", "G00d!pass", "admin")
	employee := api.signup("emp@example.com", "G00d!pass", "employee")

	adminTok := api.signin("admin@example.com", "G00d!pass")
	auth := bearerHeader(adminTok)

	// list shows both accounts
	resp := api.get("/v1/accounts", nil, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: unexpected status %d", resp.StatusCode)
	}
	list := decode[directory.ListResult](t, resp)
	if list.Total != 2 {
		t.Fatalf("list total = %d, want 2", list.Total)
	}

	// read and update the employee
	resp = api.get("/v1/accounts/"+employee.ID, nil, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: unexpected status %d", resp.StatusCode)
	}

	resp = api.put("/v1/accounts/"+employee.ID, map[string]any{
		"profile": map[string]any{"first_name": "Erin", "handle": "erin"},
	}, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: unexpected status %d", resp.StatusCode)
	}
	updated := decode[directory.Account](t, resp)
	if updated.Profile.FirstName == nil || *updated.Profile.FirstName != "Erin" {
		t.Fatalf("profile not updated: %+v", updated.Profile)
	}

	// delete returns the record's last state, then confirm 404
	resp = api.delete("/v1/accounts/"+employee.ID, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: unexpected status %d", resp.StatusCode)
	}
	gone := decode[directory.Account](t, resp)
	if gone.ID != employee.ID || gone.Email != "emp@example.com" {
		t.Fatalf("delete response = %+v, want the employee's last state", gone)
	}
	if gone.Profile.FirstName == nil || *gone.Profile.FirstName != "Erin" {
		t.Fatalf("delete response lost profile state: %+v", gone.Profile)
	}

	resp = api.get("/v1/accounts/"+employee.ID, nil, auth)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
	_ = admin
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/accounts", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected error message")
	}
}
