package httpapi

import (
	"net/http"
	"time"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/directory"
)

const sessionCookie = "token"

type profilePayload struct {
	FirstName  *string `json:"first_name"`
	MiddleName *string `json:"middle_name"`
	LastName   *string `json:"last_name"`
	Handle     *string `json:"handle"`
	AvatarURL  *string `json:"avatar_url"`
	Bio        *string `json:"bio"`
}

func (p *profilePayload) toProfile() directory.Profile {
	if p == nil {
		return directory.Profile{}
	}
	return directory.Profile{
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		Handle:     p.Handle,
		AvatarURL:  p.AvatarURL,
		Bio:        p.Bio,
	}
}

type signupRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     string          `json:"role"`
	Profile  *profilePayload `json:"profile"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Account   directory.Account `json:"account"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.svc.Signup(r.Context(), req.Email, req.Password, req.Role, req.Profile.toProfile())
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.signup", map[string]any{
		"account_id": acc.ID,
		"email":      acc.Email,
		"role":       acc.Role.String(),
	})
	w.Header().Set("Location", "/v1/accounts/"+acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) handleSignin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.svc.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	signed, err := a.tokens.Issue(acc.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	expiresAt := time.Now().UTC().Add(a.tokens.TTL())

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	_ = audit.LogEvent(r.Context(), "account.signin", map[string]any{
		"account_id": acc.ID,
		"email":      acc.Email,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Account:   acc,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.svc.Register(r.Context(), req.Email)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.register", map[string]any{
		"account_id": acc.ID,
		"email":      acc.Email,
		"role":       acc.Role.String(),
	})
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	_ = audit.LogEvent(r.Context(), "account.logout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
}
