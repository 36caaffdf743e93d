package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	msgNotAuthenticated  = "not authenticated"
	msgInvalidLogin      = "invalid email or password"
	msgInvalidBody       = "invalid request body"
	msgInternal          = "internal server error"
	msgAccountRegistered = "account created"
	msgLoggedOut         = "logged out"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// maxCredentialsBytes caps the body of /register and /login.
const maxCredentialsBytes = 1 << 16

// decodeCredentials accepts a JSON body or a url-encoded form.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialsBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}
