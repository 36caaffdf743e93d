package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

type AccountHandler struct {
	service ports.AccountService
}

func NewAccountHandler(service ports.AccountService) *AccountHandler {
	return &AccountHandler{
		service: service,
	}
}

type protectedResponse struct {
	Data string          `json:"data"`
	User *domain.Account `json:"user"`
}

// Protected godoc
// @Summary      Returns protected data for the authenticated account
// @Tags         account
// @Security     BearerAuth
// @Success      200
// @Failure      401
// @Router       /protected [post]
func (h *AccountHandler) Protected(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value(AccountIDKey).(uuid.UUID)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	account, err := h.service.GetByID(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		logger.From(r.Context()).Error("account_lookup_failed", slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, protectedResponse{Data: "This is protected data.", User: account})
}
