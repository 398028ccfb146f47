package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/caduhr/bolao-system/handlers"
	"github.com/caduhr/bolao-system/middleware"
	"github.com/caduhr/bolao-system/models"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	poolHandler *handlers.PoolHandler,
	matchHandler *handlers.MatchHandler,
	betHandler *handlers.BetHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	invitationHandler *handlers.InvitationHandler,
	competitionHandler *handlers.CompetitionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Get("/auth/confirm-email", authHandler.ConfirmEmail)
	router.Post("/auth/password-reset/request", authHandler.RequestPasswordReset)
	router.Post("/auth/password-reset", authHandler.ResetPassword)

	router.Route("/users", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/me", userHandler.GetMe)
		r.Patch("/me", userHandler.UpdateMe)
		r.Post("/me/avatar", userHandler.UploadAvatar)
	})

	router.Route("/sports", func(r chi.Router) {
		r.Get("/", competitionHandler.ListSports)
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/", competitionHandler.CreateSport)
		})
	})

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", competitionHandler.List)
		r.Get("/{id}", competitionHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/", competitionHandler.Create)
			r.Post("/{id}/logo", competitionHandler.UploadLogo)
		})
	})

	router.Route("/pools", func(r chi.Router) {
		r.Get("/", poolHandler.List)
		r.Get("/{slug}", poolHandler.Get)
		r.Get("/{slug}/matches", matchHandler.ListByPool)
		r.Get("/{slug}/leaderboard", leaderboardHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", poolHandler.Create)
			r.Post("/join-by-code", poolHandler.JoinByCode)

			r.Patch("/{slug}", poolHandler.Update)
			r.Delete("/{slug}", poolHandler.Delete)
			r.Post("/{slug}/join", poolHandler.Join)
			r.Delete("/{slug}/leave", poolHandler.Leave)
			r.Patch("/{slug}/status", poolHandler.ChangeStatus)
			r.Patch("/{slug}/participants/{userID}/payment", poolHandler.SetPaymentStatus)

			r.Post("/{slug}/matches", matchHandler.ImportFixtures)
			r.Post("/{slug}/matches/{matchID}/bets", betHandler.Place)
			r.Get("/{slug}/bets", betHandler.ListMine)

			r.Post("/{slug}/invitations", invitationHandler.Invite)
			r.Get("/{slug}/invitations", invitationHandler.ListByPool)
			r.Delete("/{slug}/invitations/{invitationID}", invitationHandler.Revoke)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Patch("/", matchHandler.Reschedule)
		r.Delete("/", matchHandler.Delete)
		r.Post("/result", matchHandler.PostResult)
		r.Put("/result", matchHandler.CorrectResult)
		r.Get("/bets", betHandler.ListByMatch)
	})

	router.Route("/invitations", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/accept", invitationHandler.Accept)
	})

	router.Get("/ws/pools/{slug}", webSocketHandler.ServeWs)
}
