package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/directory"
)

type updateAccountRequest struct {
	Email    *string         `json:"email"`
	Password *string         `json:"password"`
	Role     *string         `json:"role"`
	Profile  *profilePayload `json:"profile"`
}

func (a *API) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	actor, ok := directory.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	res, err := a.svc.List(r.Context(), actor, directory.ListParams{
		Page:    q.Get("page"),
		PerPage: q.Get("per_page"),
		Role:    q.Get("role"),
		Search:  q.Get("search"),
	})
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleAccountScoped(w http.ResponseWriter, r *http.Request) {
	actor, ok := directory.ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if path == "me" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		writeJSON(w, http.StatusOK, actor)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, actor, path)
	case http.MethodPut:
		a.updateAccount(w, r, actor, path)
	case http.MethodDelete:
		a.deleteAccount(w, r, actor, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, actor directory.Account, id string) {
	acc, err := a.svc.GetByID(r.Context(), actor, id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, actor directory.Account, id string) {
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	in := directory.UpdateInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
	if req.Profile != nil {
		in.Profile = &directory.ProfileUpdate{
			FirstName:  req.Profile.FirstName,
			MiddleName: req.Profile.MiddleName,
			LastName:   req.Profile.LastName,
			Handle:     req.Profile.Handle,
			AvatarURL:  req.Profile.AvatarURL,
			Bio:        req.Profile.Bio,
		}
	}

	acc, err := a.svc.Update(r.Context(), actor, id, in)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.update", map[string]any{
		"account_id": acc.ID,
	})
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, actor directory.Account, id string) {
	acc, err := a.svc.Delete(r.Context(), actor, id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.delete", map[string]any{
		"account_id": acc.ID,
		"email":      acc.Email,
	})
	// the response is the record's last state before removal
	writeJSON(w, http.StatusOK, acc)
}

func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *directory.ValidationError
	switch {
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "account not found")
	case errors.Is(err, directory.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "account already exists")
	case errors.Is(err, directory.ErrAccessDenied):
		writeError(w, r, http.StatusForbidden, "access denied")
	case errors.Is(err, directory.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "invalid credentials")
	case errors.As(err, &ve):
		payload := map[string]any{
			"error":      "password does not meet requirements",
			"violations": ve.Violations,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusBadRequest, payload)
	case errors.Is(err, directory.ErrInvalidRole), errors.Is(err, directory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// --- shared request/response helpers ---

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
