package auth

import (
	"context"
	"net/http"
)

const SessionCookie = "stockroom_session"

type ctxKey struct{}

// FromContext возвращает актора запроса (nil — аноним).
func FromContext(ctx context.Context) *Actor {
	a, _ := ctx.Value(ctxKey{}).(*Actor)
	return a
}

// WithActor кладёт актора в контекст (для тестов обработчиков).
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// Middleware разбирает сессионную куку. Битая или просроченная кука
// не валит запрос: дальше он идёт как анонимный.
func (s *TokenService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(SessionCookie); err == nil {
			if actor, err := s.Parse(c.Value); err == nil {
				r = r.WithContext(WithActor(r.Context(), actor))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor пускает дальше только аутентифицированных.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
