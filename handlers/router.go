// forum-backend/handlers/router.go

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)
	mux.Use(AuthMiddleware(app))

	// Static file server for locally stored uploads
	mux.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.UploadDir()))))

	mux.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", MakeHandler(app, HandleRegister))
		r.Post("/auth/login", MakeHandler(app, HandleLogin))

		r.Get("/tags", MakeHandler(app, HandleListTags))

		r.Route("/threads", func(r chi.Router) {
			r.Get("/", MakeHandler(app, HandleListThreads))
			r.Post("/", MakeHandler(app, HandleCreateThread))
			r.Get("/{threadID}", MakeHandler(app, HandleGetThreadTree))
			r.Patch("/{threadID}", MakeHandler(app, HandleEditThread))
			r.Delete("/{threadID}", MakeHandler(app, HandleDeleteThread))
			r.Post("/{threadID}/subthreads", MakeHandler(app, HandleCreateSubthread))
			r.Post("/{threadID}/vote", MakeHandler(app, HandleVote))
			r.Post("/{threadID}/subscription", MakeHandler(app, HandleToggleSubscription))
		})

		r.Route("/users", func(r chi.Router) {
			r.Patch("/nickname", MakeHandler(app, HandleUpdateNickname))
			r.Patch("/login", MakeHandler(app, HandleUpdateLogin))
			r.Patch("/password", MakeHandler(app, HandleUpdatePassword))
			r.Put("/avatar", MakeHandler(app, HandleUpdateAvatar))
			r.Delete("/avatar", MakeHandler(app, HandleRemoveAvatar))
			r.Post("/{userID}/report", MakeHandler(app, HandleReportUser))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/ban-user/{userID}", MakeHandler(app, HandleBanUser))
			r.Post("/unban-user/{userID}", MakeHandler(app, HandleUnbanUser))
			r.Get("/banned-users", MakeHandler(app, HandleListBannedUsers))
			r.Get("/reported-users", MakeHandler(app, HandleListReportedUsers))
			r.Delete("/delete-report/{reportID}", MakeHandler(app, HandleDeleteReport))
		})
	})

	return mux
}
