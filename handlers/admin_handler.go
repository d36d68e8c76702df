package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Dosada05/hackathon-portal/metrics"
	"github.com/Dosada05/hackathon-portal/middleware"
	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

type AdminHandler struct {
	authService      services.AuthService
	dashboardService services.DashboardService
	eventService     services.EventService
	metrics          *metrics.Metrics
	secureCookie     bool
}

func NewAdminHandler(
	as services.AuthService,
	ds services.DashboardService,
	es services.EventService,
	m *metrics.Metrics,
	secureCookie bool,
) *AdminHandler {
	return &AdminHandler{
		authService:      as,
		dashboardService: ds,
		eventService:     es,
		metrics:          m,
		secureCookie:     secureCookie,
	}
}

// Login godoc
// @Summary  Admin login
// @Tags     admin
// @Accept   json,mpfd,x-www-form-urlencoded
// @Produce  json
// @Param    input  body      models.Credentials  true  "Credentials"
// @Success  200    {object}  map[string]interface{}
// @Failure  401    {object}  map[string]interface{}
// @Router   /admin/login [post]
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	token, expiresAt, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAdminNotConfigured) {
			h.metrics.AdminLogin(metrics.ResultRejected)
		} else {
			h.metrics.AdminLogin(metrics.ResultError)
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.metrics.AdminLogin(metrics.ResultAccepted)

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	successResponse(w, r, http.StatusOK, "Successfully logged in", jsonResponse{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Logout godoc
// @Summary  Admin logout
// @Tags     admin
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /admin/logout [post]
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	successResponse(w, r, http.StatusOK, "Logged out", nil)
}

func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		badRequestResponse(w, r, errors.New("current_password and new_password are required"))
		return
	}

	email := middleware.GetAuthContext(r.Context()).Email
	if err := h.authService.ChangePassword(r.Context(), email, input.CurrentPassword, input.NewPassword); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Password changed", nil)
}

// Dashboard godoc
// @Summary  Admin dashboard counters
// @Tags     admin
// @Produce  json
// @Param    event  query     string  false  "Hackathon name (defaults to the active one)"
// @Success  200    {object}  models.DashboardStats
// @Router   /admin/dashboard [get]
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context(), eventParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"stats": stats})
}

// UpdateEvent godoc
// @Summary  Update hackathon metadata
// @Description  Partial update of title, description, deadline, rules and prizes. A multipart request may carry a "logo" image.
// @Tags     admin
// @Accept   json,mpfd
// @Produce  json
// @Param    event  query     string                     false  "Hackathon name (defaults to the active one)"
// @Param    input  body      services.UpdateEventInput  true   "Fields to change"
// @Success  200    {object}  map[string]interface{}
// @Router   /admin/update [post]
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateEventInput
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Логотип проверяется до изменения метаданных, чтобы неверный файл
	// не оставлял частично применённое обновление.
	var (
		logo        multipart.File
		contentType string
	)
	if r.MultipartForm != nil {
		file, header, err := r.FormFile("logo")
		switch {
		case err == nil:
			defer file.Close()
			contentType = header.Header.Get("Content-Type")
			if _, err := services.GetExtensionFromContentType(contentType); err != nil {
				mapServiceErrorToHTTP(w, r, fmt.Errorf("%w: %v", services.ErrInvalidLogo, err))
				return
			}
			logo = file
		case !errors.Is(err, http.ErrMissingFile):
			badRequestResponse(w, r, err)
			return
		}
	}

	event, err := h.eventService.Update(r.Context(), eventParam(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if logo != nil {
		event, err = h.eventService.SetLogo(r.Context(), event.Name, contentType, logo)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
	}

	successResponse(w, r, http.StatusOK, "Hackathon details updated", jsonResponse{"hackathon": event})
}
