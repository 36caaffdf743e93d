package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/refresh_token"
)

type CookieOptions struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	service ports.AuthService
	cookie  CookieOptions
	now     func() time.Time
}

func NewAuthHandler(service ports.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		now:     time.Now,
	}
}

type accessTokenResponse struct {
	AccessToken string `json:"accesstoken"`
	Email       string `json:"email,omitempty"`
}

// Register godoc
// @Summary      Registers an account
// @Tags         auth
// @Accept       json
// @Success      201
// @Failure      400
// @Failure      409
// @Router       /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	account, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyRegistered):
			writeError(w, http.StatusConflict, domain.ErrAlreadyRegistered.Error())
		case errors.Is(err, domain.ErrInvalidIdentity):
			writeError(w, http.StatusBadRequest, domain.ErrInvalidIdentity.Error())
		case errors.Is(err, domain.ErrEmptyCredential):
			writeError(w, http.StatusBadRequest, domain.ErrEmptyCredential.Error())
		default:
			logger.From(r.Context()).Error("register_failed", slog.String("err", err.Error()))
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: msgAccountRegistered, ID: account.ID.String()})
}

// Login godoc
// @Summary      Logs an account in
// @Description  Returns the access token in the body and sets the refresh token cookie, scoped to `/refresh_token`.
// @Tags         auth
// @Accept       json
// @Success      200
// @Failure      401
// @Router       /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	pair, account, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			writeError(w, http.StatusUnauthorized, msgInvalidLogin)
			return
		}
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	h.setRefreshTokenCookie(w, pair)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken, Email: account.Identity})
}

// Refresh godoc
// @Summary      Rotates the refresh token
// @Description  Exchanges the refresh token cookie for a new access token and a new refresh token cookie. Any rejection answers 200 with an empty `accesstoken`.
// @Tags         auth
// @Success      200
// @Router       /refresh_token [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		presented = cookie.Value
	}

	pair, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		switch {
		case !isRejectedRefresh(err):
			// A store failure leaves the presented token live, so the cookie stays.
			logger.From(r.Context()).Error("refresh_failed", slog.String("err", err.Error()))
		case presented != "":
			h.expireRefreshTokenCookie(w)
		}
		writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: ""})
		return
	}

	h.setRefreshTokenCookie(w, pair)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Logout godoc
// @Summary      Logs the account out
// @Description  Clears the refresh token cookie and revokes the live refresh token of the account named by the bearer token or the cookie.
// @Tags         auth
// @Success      200
// @Router       /logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	req := ports.LogoutRequest{Authorization: r.Header.Get("Authorization")}
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		req.RefreshToken = cookie.Value
	}

	if err := h.service.Logout(r.Context(), req); err != nil {
		logger.From(r.Context()).Error("logout_revoke_failed", slog.String("err", err.Error()))
	}

	h.expireRefreshTokenCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
}

func isRejectedRefresh(err error) bool {
	return errors.Is(err, domain.ErrNoToken) ||
		errors.Is(err, domain.ErrInvalidToken) ||
		errors.Is(err, domain.ErrUnknownAccount) ||
		errors.Is(err, domain.ErrStaleToken)
}

func (h *AuthHandler) setRefreshTokenCookie(w http.ResponseWriter, pair *domain.TokenPair) {
	maxAge := int(pair.RefreshExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     RefreshCookiePath,
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
		MaxAge:   maxAge,
	})
}

func (h *AuthHandler) expireRefreshTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		Domain:   h.cookie.Domain,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
		MaxAge:   -1,
	})
}
