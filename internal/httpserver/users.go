package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/slim-mom/backend/internal/logging"
	"github.com/slim-mom/backend/internal/mail"
	authmw "github.com/slim-mom/backend/internal/middleware/auth"
	"github.com/slim-mom/backend/internal/models"
	"github.com/slim-mom/backend/internal/service"
	"github.com/slim-mom/backend/internal/tokens"
)

type UserHTTP struct {
	Svc    *service.IdentityService
	Mailer mail.Mailer
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	message := "Registration successful. Please check your email to verify your account."
	if !res.EmailSent {
		message += " However, email sending failed."
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"code":   http.StatusCreated,
		"data": echo.Map{
			"message": message,
			"user": echo.Map{
				"email":    res.Email,
				"verified": res.Verified,
			},
		},
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	l.Info("login_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"code":   http.StatusOK,
		"data": echo.Map{
			"token":        res.AccessToken,
			"refreshToken": res.RefreshToken,
			"user": echo.Map{
				"username":  res.User.Username,
				"email":     res.User.Email,
				"dailyKcal": res.User.DailyKcal,
			},
		},
	})
}

func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_logout")

	user := c.Get(authmw.ContextUserKey).(*models.User)
	tokenStr := c.Get(authmw.ContextTokenKey).(string)

	expiresAt := time.Now()
	if claims, ok := c.Get(authmw.ContextClaimsKey).(*tokens.AccessClaims); ok && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := h.Svc.Logout(ctx, user, tokenStr, expiresAt); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	l.Info("successful_logout")

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"code":    http.StatusOK,
		"message": "Successfully logged out",
	})
}

func (h *UserHTTP) Current(c echo.Context) error {
	user := c.Get(authmw.ContextUserKey).(*models.User)

	return c.JSON(http.StatusOK, echo.Map{
		"username":  user.Username,
		"email":     user.Email,
		"avatarURL": user.AvatarURL,
		"dailyKcal": user.DailyKcal,
		"verified":  user.Verified,
	})
}

// SendVerifyEmail dispatches a plain notification to the given address.
// Unlike registration, a transport failure here is the whole point of
// the call, so it surfaces as a 500.
func (h *UserHTTP) SendVerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_send_verify")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required field: email")
	}

	if err := h.Mailer.Send(ctx, req.Email, "Verify Your Email Address", "Please verify your email address."); err != nil {
		l.Error("send_email_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send email")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"status": "success",
		"code":   http.StatusCreated,
		"data":   echo.Map{"message": "Verification email sent"},
	})
}

func (h *UserHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.Verify(ctx, c.Param("token")); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Verification successful"})
}

func (h *UserHTTP) ResendVerify(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required field: email")
	}

	sent, err := h.Svc.ResendVerification(ctx, req.Email)
	if err != nil {
		return httpError(err)
	}

	message := "Verification email sent"
	if !sent {
		message = "Verification token refreshed. However, email sending failed."
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message})
}

func (h *UserHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusForbidden, "refresh token is required")
	}

	accessToken, _, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"accessToken": accessToken})
}

func (h *UserHTTP) SetDailyKcal(c echo.Context) error {
	ctx := c.Request().Context()

	user := c.Get(authmw.ContextUserKey).(*models.User)

	var req struct {
		Kcal float64 `json:"kcal"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.SetDailyKcal(ctx, user, req.Kcal); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Daily kcal updated successfully",
		"dailyKcal": user.DailyKcal,
	})
}

// httpError translates the service taxonomy into transport failures.
// Anything unclassified becomes an opaque 500.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Email already in use")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, service.ErrNotVerified):
		return echo.NewHTTPError(http.StatusForbidden, "Please verify your email before logging in")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrAlreadyVerified):
		return echo.NewHTTPError(http.StatusBadRequest, "Verification has already been passed")
	case errors.Is(err, service.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusForbidden, "Invalid refresh token")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}
}
