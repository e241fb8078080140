package middleware

import (
	"context"

	"github.com/OFFIS-RIT/lineage/internal/queue"
	"github.com/OFFIS-RIT/lineage/pkg/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type GraphBuilder interface {
	Build(ctx context.Context, root string, depth int) (*common.GraphResult, error)
}

type ArtistResolver interface {
	Resolve(ctx context.Context, identifier string) (*common.Artist, error)
}

type AppUser struct {
	ID          string
	Role        string
	Permissions []string
}

type App struct {
	Builder  GraphBuilder
	Resolver ArtistResolver
	// Queue is nil when no broker is configured.
	Queue queue.Channel
	// Keyfunc verifies bearer JWTs. Nil disables JWT auth.
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
