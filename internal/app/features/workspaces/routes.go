// internal/app/features/workspaces/routes.go
package workspaces

import "github.com/go-chi/chi/v5"

// MountRoutes registers the workspace endpoints on the API router.
// Services decide authorization, so no role middleware is applied here.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces", h.ServeList)
	r.Post("/workspaces", h.HandleCreate)

	r.Get("/workspaces/{id}", h.ServeGet)
	r.Patch("/workspaces/{id}", h.HandleUpdate)
	r.Delete("/workspaces/{id}", h.HandleDelete)

	// ADMISSION
	r.Get("/workspaces/{id}/info", h.ServeInfo)
	r.Post("/workspaces/{id}/join", h.HandleJoin)
	r.Post("/workspaces/{id}/join-code", h.HandleRotateJoinCode)
}
