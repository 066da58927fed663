package middleware

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"travelkita_app/internal/models"
)

// resolveSession verifies the Firebase session cookie and, when a database
// is available, loads or creates the matching account row. Returns false
// when the caller is not authenticated.
func resolveSession(c echo.Context, authClient *auth.Client, db *gorm.DB) bool {
	if authClient == nil {
		return false
	}

	cookie, err := c.Cookie("session")
	if err != nil || cookie.Value == "" {
		return false
	}

	decodedToken, err := authClient.VerifySessionCookie(c.Request().Context(), cookie.Value)
	if err != nil {
		return false
	}

	c.Set("userUID", decodedToken.UID)
	email, _ := decodedToken.Claims["email"].(string)
	if email != "" {
		c.Set("userEmail", email)
	}
	name, _ := decodedToken.Claims["name"].(string)

	if db != nil {
		var user models.User
		err := db.Where("firebase_uid = ?", decodedToken.UID).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = models.User{FirebaseUID: decodedToken.UID, Email: email, Name: name}
			if createErr := db.Create(&user).Error; createErr != nil {
				c.Logger().Errorf("failed to create user for %s: %v", decodedToken.UID, createErr)
			}
		}
		if user.ID != 0 {
			c.Set("userID", user.ID)
		}
	}

	return true
}

// RequireAuth rejects unauthenticated requests. Protects trip history and
// other account-only surfaces.
func RequireAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !resolveSession(c, authClient, db) {
				clearCookie := &http.Cookie{
					Name:     "session",
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				}
				c.SetCookie(clearCookie)
				return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in to continue")
			}
			return next(c)
		}
	}
}

// OptionalAuth resolves the account when a valid session exists but lets
// anonymous callers through. Checkout begins under this middleware: a
// signed-in caller skips account resolution, a guest goes through it.
func OptionalAuth(authClient *auth.Client, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			resolveSession(c, authClient, db)
			return next(c)
		}
	}
}
