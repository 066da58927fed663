package handlers

import (
	"net/http"
	"os"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"travelkita_app/internal/models"
)

// AuthHandler handles the sign-in hand-off with the external auth
// collaborator. Checkout itself never sees credentials, only the resolved
// account.
type AuthHandler struct {
	authClient *auth.Client
	db         *gorm.DB
}

func NewAuthHandler(authClient *auth.Client, db *gorm.DB) *AuthHandler {
	return &AuthHandler{authClient: authClient, db: db}
}

// HandleLogin verifies the Firebase ID token, creates a session cookie, and
// makes sure an account row exists for trip history.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.authClient == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Firebase not initialized",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Missing authorization header",
		})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid authorization format",
		})
	}

	token, err := h.authClient.VerifyIDToken(c.Request().Context(), tokenString)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid token",
		})
	}

	if h.db != nil {
		email, _ := token.Claims["email"].(string)
		name, _ := token.Claims["name"].(string)
		var user models.User
		if err := h.db.Where("firebase_uid = ?", token.UID).First(&user).Error; err == gorm.ErrRecordNotFound {
			user = models.User{FirebaseUID: token.UID, Email: email, Name: name}
			if createErr := h.db.Create(&user).Error; createErr != nil {
				c.Logger().Errorf("failed to create user for %s: %v", token.UID, createErr)
			}
		}
	}

	// Session cookie valid for 5 days
	expiresIn := time.Hour * 24 * 5
	cookieValue, err := h.authClient.SessionCookie(c.Request().Context(), tokenString, expiresIn)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create session",
		})
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    cookieValue,
		MaxAge:   int(expiresIn.Seconds()),
		HttpOnly: true,
		Secure:   os.Getenv("ENV") == "production",
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "session",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{
		"status": "logged out",
	})
}

// Status reports the authentication state so the checkout UI knows whether
// to show account resolution.
func (h *AuthHandler) Status(c echo.Context) error {
	uid := getStringFromContext(c, "userUID")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"authenticated": uid != "",
		"email":         getStringFromContext(c, "userEmail"),
	})
}
