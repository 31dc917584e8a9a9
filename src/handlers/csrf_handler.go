package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/username/insightfactory/backend/src/logger"
	"github.com/username/insightfactory/backend/src/utils"
)

const csrfCookieName = "_csrf"

// GetCSRFToken mints a random token, sets it as a cookie and returns it in the
// body and the X-CSRF-Token header for double-submit validation.
func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := generateRandomToken()

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   false, // set to true in production with HTTPS
		MaxAge:   3600,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CSRF-Token", token)
	json.NewEncoder(w).Encode(map[string]string{
		"csrfToken": token,
	})
}

func generateRandomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		logger.L.Error("Failed to generate random CSRF token bytes", "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// CSRFMiddleware validates the double-submit token on state-changing requests.
// The auth key keeps the comparison constant-time via HMAC.
func CSRFMiddleware(authKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			headerToken := r.Header.Get("X-CSRF-Token")
			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || headerToken == "" {
				logger.L.Warn("CSRF validation failed: token missing", "path", r.URL.Path, "method", r.Method)
				utils.SendJSONError(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			if !tokensMatch(authKey, headerToken, cookie.Value) {
				logger.L.Warn("CSRF validation failed: token mismatch", "path", r.URL.Path, "method", r.Method)
				utils.SendJSONError(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokensMatch(authKey []byte, headerToken, cookieToken string) bool {
	mac := hmac.New(sha256.New, authKey)
	mac.Write([]byte(headerToken))
	expected := mac.Sum(nil)

	mac.Reset()
	mac.Write([]byte(cookieToken))
	actual := mac.Sum(nil)

	return hmac.Equal(expected, actual)
}
