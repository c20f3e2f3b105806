package app

import (
	httpMW "github.com/yungbote/skillbharat-backend/internal/http/middleware"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, svc Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, svc.Auth),
	}
}
