package main

import (
	"log"

	"github.com/yosbany/NRDOperaciones-sub000/internal/auth"
	"github.com/yosbany/NRDOperaciones-sub000/internal/config"
	"github.com/yosbany/NRDOperaciones-sub000/internal/handler"
	"github.com/yosbany/NRDOperaciones-sub000/internal/logger"
	"github.com/yosbany/NRDOperaciones-sub000/internal/notification"
	"github.com/yosbany/NRDOperaciones-sub000/internal/service"
	"github.com/yosbany/NRDOperaciones-sub000/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.GetConfig()

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}

	notifier := notification.NewNotifier(cfg.Notification, zaplog)

	auth := auth.NewAuth(store)
	service := service.NewService(store, notifier, zaplog, nil)
	defer service.Close()

	return handler.Serve(cfg.Handler, auth, service, zaplog)
}
