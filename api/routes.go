package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /api/auth/register", app.registerUserHandler)
	mux.HandleFunc("POST /api/auth/login", app.loginUserHandler)
	mux.HandleFunc("POST /api/auth/logout", app.requireAuth(app.logoutUserHandler))
	mux.HandleFunc("GET /api/auth/me", app.requireAuth(app.getCurrentUserHandler))

	mux.HandleFunc("GET /api/tasks", app.requireAuth(app.getTasksHandler))
	mux.HandleFunc("POST /api/tasks", app.requireAuth(app.createTaskHandler))
	mux.HandleFunc("PUT /api/tasks/{id}", app.requireAuth(app.updateTaskHandler))
	mux.HandleFunc("DELETE /api/tasks/{id}", app.requireAuth(app.deleteTaskHandler))

	mux.Handle("GET /", uiHandler())

	return app.enableCORS(mux)
}
