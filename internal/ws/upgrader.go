package ws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader принимает соединения только с разрешенных origins.
// "*" разрешает все. Запросы без Origin (не из браузера) пропускаются.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := slices.Contains(allowedOrigins, "*")

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allowAll || origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
}
