package httpapi

import (
	"net/http"
	"testing"
)

func TestAuthnRejectsGarbageToken(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/accounts/me", nil, bearerHeader("not-a-token"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthnRejectsWrongScheme(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/accounts/me", nil, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthnRejectsTokenForDeletedAccount(t *testing.T) {
	api := newTestAPI(t)

	api.signup("admin@example.com", "G00d!pass", "admin")
	ghost := api.signup("ghost@example.com", "G00d!pass", "employee")

	adminTok := api.signin("admin@example.com", "G00d!pass")
	ghostTok := api.signin("ghost@example.com", "G00d!pass")

	resp := api.delete("/v1/accounts/"+ghost.ID, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: unexpected status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// the signed token is still valid crypto-wise, the session is not
	resp = api.get("/v1/accounts/me", nil, bearerHeader(ghostTok))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPublicPathsSkipAuthn(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info", "/metrics"} {
		resp := api.get(path, nil, nil)
		if resp.StatusCode == http.StatusUnauthorized {
			t.Fatalf("%s should be public", path)
		}
		resp.Body.Close()
	}
}
