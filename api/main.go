// @title BBBAB Conversations
// @version 0.1
// @description Conversation membership and messaging API.

// @host localhost:8080
// @BasePath /api
// @query.collection.format multi
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"github.com/sirupsen/logrus"

	"tush00nka/bbbab_conversations/internal/app"
	"tush00nka/bbbab_conversations/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Config error: %v", err)
	}

	if err := app.Run(cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
