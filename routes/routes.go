package routes

import (
	"github.com/Dosada05/hunt-reservation/handlers"
	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Server     *handlers.ServerHandler
	Respawn    *handlers.RespawnHandler
	Difficulty *handlers.DifficultyHandler
	Slot       *handlers.SlotHandler
	Period     *handlers.PeriodHandler
	Request    *handlers.RequestHandler
	Claim      *handlers.ClaimHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, auth *middleware.Auth, limiter *middleware.RateLimiter, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(limiter.Handler)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	router.Route("/servers", func(r chi.Router) {
		r.Get("/", h.Server.ListServers)
		r.Get("/{serverID}", h.Server.GetServerByID)
		r.Get("/{serverID}/respawns", h.Respawn.ListRespawnsByServer)
		r.Get("/{serverID}/slots", h.Slot.ListSlotsByServer)
		r.Get("/{serverID}/periods", h.Period.ListPeriodsByServer)

		// Административная часть каталога
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireAdmin)

			r.Post("/", h.Server.CreateServer)
			r.Put("/{serverID}", h.Server.UpdateServer)
			r.Delete("/{serverID}", h.Server.DeleteServer)

			r.Post("/{serverID}/respawns", h.Respawn.CreateRespawn)
			r.Post("/{serverID}/respawns/copy", h.Respawn.CopyRespawns)
			r.Post("/{serverID}/slots", h.Slot.CreateSlot)
			r.Post("/{serverID}/periods", h.Period.CreatePeriod)
		})
	})

	router.Route("/respawns", func(r chi.Router) {
		r.Get("/{respawnID}", h.Respawn.GetRespawnByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireAdmin)

			r.Put("/{respawnID}", h.Respawn.UpdateRespawn)
			r.Delete("/{respawnID}", h.Respawn.DeleteRespawn)
			r.Post("/{respawnID}/image", h.Respawn.UploadRespawnImage)
		})
	})

	router.Route("/slots", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireAdmin)

		r.Put("/{slotID}", h.Slot.UpdateSlot)
		r.Delete("/{slotID}", h.Slot.DeleteSlot)
	})

	router.Route("/periods", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireAdmin)

		r.Put("/{periodID}", h.Period.UpdatePeriod)
		r.Post("/{periodID}/activate", h.Period.ActivatePeriod)
		r.Delete("/{periodID}", h.Period.DeletePeriod)
	})

	router.Route("/difficulties", func(r chi.Router) {
		r.Get("/", h.Difficulty.ListDifficulties)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireAdmin)

			r.Post("/", h.Difficulty.CreateDifficulty)
			r.Put("/{difficultyID}", h.Difficulty.UpdateDifficulty)
			r.Delete("/{difficultyID}", h.Difficulty.DeleteDifficulty)
		})
	})

	router.Route("/requests", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", h.Request.CreateRequest)
		r.Get("/", h.Request.ListRequests)
		r.Get("/{requestID}", h.Request.GetRequestByID)
		r.Post("/{requestID}/cancel", h.Request.CancelRequest)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/{requestID}/approve", h.Request.ApproveRequest)
			r.Post("/{requestID}/reject", h.Request.RejectRequest)
		})
	})

	router.Route("/me", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/", h.User.GetMe)
		r.Get("/points", h.User.GetMyPoints)
		r.Get("/points/transactions", h.User.ListMyTransactions)
		r.Get("/characters", h.User.ListMyCharacters)
		r.Post("/characters", h.User.RegisterCharacter)
		r.Delete("/characters/{characterID}", h.User.DeleteCharacter)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/{userID}", h.User.GetUserByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Get("/", h.User.ListUsers)
			r.Post("/{userID}/points/grant", h.User.GrantPoints)
		})
	})

	router.Route("/claims", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", h.Claim.CreateClaim)
		r.Get("/", h.Claim.ListClaims)
		r.Get("/{claimID}", h.Claim.GetClaimByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/{claimID}/approve", h.Claim.ApproveClaim)
			r.Post("/{claimID}/reject", h.Claim.RejectClaim)
		})
	})

	// Websocket-уведомления о заявках сервера. Токен передаётся в query.
	router.With(auth.Authenticate).Get("/ws/servers/{serverID}", h.WebSocket.ServeWs)
}
