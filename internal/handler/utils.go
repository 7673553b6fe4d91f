package handler

import (
	"context"
	"net/http"

	"tush00nka/bbbab_conversations/internal/pkg/auth"
)

type PongResponse struct {
	Message string `json:"message"`
	Storage string `json:"storage"`
}

// Ping
// @Summary Пингануть сервер
// @Description Пингануть сервер и проверить доступность хранилища
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Failure 503 {object} PongResponse
// @Router /ping [get]
func Ping(check func(ctx context.Context) error) Endpoint {
	return func(r *http.Request, _ auth.Identity) Result {
		if check != nil {
			if err := check(r.Context()); err != nil {
				return ok(http.StatusServiceUnavailable, PongResponse{Message: "Pong", Storage: "down"})
			}
		}
		return ok(http.StatusOK, PongResponse{Message: "Pong", Storage: "up"})
	}
}
