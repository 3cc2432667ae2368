package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/slim-mom/backend/internal/middleware/auth"
)

type Deps struct {
	UserHandler *UserHTTP
	Gate        *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	users := e.Group("/api/users")

	users.POST("/register", d.UserHandler.Register)
	users.POST("/login", d.UserHandler.Login)
	users.POST("/verify", d.UserHandler.SendVerifyEmail)
	users.GET("/verify/:token", d.UserHandler.Verify)
	users.POST("/resend-verify", d.UserHandler.ResendVerify)
	users.POST("/refresh-token", d.UserHandler.RefreshToken)

	private := users.Group("", d.Gate.RequireAuth)

	private.POST("/logout", d.UserHandler.Logout)
	private.GET("/current", d.UserHandler.Current)
	private.POST("/daily-kcal", d.UserHandler.SetDailyKcal)
}
