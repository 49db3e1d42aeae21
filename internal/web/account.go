package web

import (
	"net/http"

	"github.com/mbops/stockroom/internal/auth"
	"github.com/mbops/stockroom/internal/domain/users"
)

// login обменивает известный логин на сессионную куку. Инструмент
// внутренний: сотрудники заведены заранее, пароли не используются.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	login := r.FormValue("login")
	if login == "" {
		h.fail(w, http.StatusBadRequest, "login is required")
		return
	}
	u, err := h.users.GetByLogin(r.Context(), login)
	if err != nil {
		h.log.Error("login lookup failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil {
		h.fail(w, http.StatusUnauthorized, "unknown login")
		return
	}

	token, err := h.tokens.Issue(u)
	if err != nil {
		h.log.Error("token issue failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
	})
	redirect(w, r, "/suppliers")
}

// registerStaff заводит сотрудника заранее: входить можно только
// известным логином.
func (h *Handler) registerStaff(w http.ResponseWriter, r *http.Request) {
	if !auth.FromContext(r.Context()).Privileged() {
		h.fail(w, http.StatusForbidden, "admin access required")
		return
	}
	login := r.FormValue("login")
	if login == "" {
		h.fail(w, http.StatusBadRequest, "login is required")
		return
	}
	role := users.RoleStaff
	if r.FormValue("role") == string(users.RoleAdmin) {
		role = users.RoleAdmin
	}
	if _, err := h.users.Create(r.Context(), login, r.FormValue("full_name"), role); err != nil {
		h.log.Error("register staff failed", "err", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	redirect(w, r, "/suppliers")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	redirect(w, r, "/login")
}
