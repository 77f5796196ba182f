package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

type AccountBackend interface {
	Login(ctx context.Context, email, password string) (backend.Session, error)
	Me(ctx context.Context, token string) (domain.Profile, error)
	UpdateMe(ctx context.Context, token string, u domain.ProfileUpdate) (domain.Profile, error)
}

type AuthHandler struct {
	backend      AccountBackend
	log          *zap.Logger
	timeout      time.Duration
	secureCookie bool
}

func NewAuthHandler(be AccountBackend, log *zap.Logger, timeout time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{backend: be, log: log, timeout: timeout, secureCookie: secureCookie}
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileResponseDTO struct {
	Profile       domain.Profile `json:"profile"`
	MissingFields []string       `json:"missing_fields"`
	Complete      bool           `json:"complete"`
	Message       string         `json:"message,omitempty"`
}

type UpdateProfileRequestDTO struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=120"`
	Mobile      *string `json:"mobile" validate:"omitempty,max=32"`
	SecondPhone *string `json:"second_phone" validate:"omitempty,max=32"`
	Street      *string `json:"street" validate:"omitempty,max=200"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Area        *string `json:"area" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=2"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	sess, err := h.backend.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, profileResponse(sess.Profile, sess.Message))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.backend.Me(ctx, auth.TokenFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse(profile, ""))
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateProfileRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	profile, err := h.backend.UpdateMe(ctx, auth.TokenFromContext(ctx), domain.ProfileUpdate{
		FullName:    req.FullName,
		Mobile:      req.Mobile,
		SecondPhone: req.SecondPhone,
		Street:      req.Street,
		City:        req.City,
		Area:        req.Area,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Country:     req.Country,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse(profile, ""))
}

func profileResponse(p domain.Profile, message string) ProfileResponseDTO {
	missing := p.MissingFields()
	if missing == nil {
		missing = []string{}
	}
	return ProfileResponseDTO{
		Profile:       p,
		MissingFields: missing,
		Complete:      len(missing) == 0,
		Message:       message,
	}
}
