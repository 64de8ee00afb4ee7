package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles everything mounted by NewRouter
type Handlers struct {
	User         *UserHandler
	Couple       *CoupleHandler
	Entry        *EntryHandler
	SpecialDate  *SpecialDateHandler
	Notification *NotificationHandler
	Prompt       *PromptHandler
	Export       *ExportHandler
	WebSocket    *WebSocketHandler
}

// NewRouter wires the API routes. auth guards every route except sign-up,
// sign-in, password recovery and the WebSocket, which authenticates itself.
func NewRouter(h Handlers, auth func(http.Handler) http.Handler, extra ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(extra...)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.User.CreateUser)
		r.Post("/sessions", h.User.CreateSession)
		r.Post("/password-resets", h.User.RequestPasswordReset)
		r.Post("/password-resets/{token}", h.User.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/me", h.User.GetMe)
			r.Put("/me/push-token", h.User.UpdatePushToken)

			r.Post("/couples", h.Couple.CreateCouple)
			r.Post("/couples/join", h.Couple.JoinCouple)
			r.Get("/couples/me", h.Couple.GetCouple)
			r.Delete("/couples/me", h.Couple.LeaveCouple)

			r.Get("/entries", h.Entry.GetTimeline)
			r.Put("/entries/{day}", h.Entry.SaveEntry)
			r.Delete("/entries/{id}", h.Entry.DeleteEntry)
			r.Get("/tags", h.Entry.GetTags)

			r.Get("/special-dates", h.SpecialDate.ListSpecialDates)
			r.Post("/special-dates", h.SpecialDate.CreateSpecialDate)
			r.Delete("/special-dates/{id}", h.SpecialDate.DeleteSpecialDate)

			r.Get("/notifications", h.Notification.ListNotifications)
			r.Post("/notifications/{id}/read", h.Notification.MarkRead)

			r.Get("/prompts/random", h.Prompt.GetRandom)
			r.Post("/exports", h.Export.CreateExport)
		})
	})

	if h.WebSocket != nil {
		r.Get("/ws", h.WebSocket.HandleWebSocket)
	}

	return r
}
