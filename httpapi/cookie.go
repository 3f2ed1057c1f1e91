package httpapi

import (
	"net/http"
	"time"

	roleAuth "github.com/MrEthical07/roleAuth"
)

// setRenewalCookie issues the recruiter renewal cookie. It is always HttpOnly.
func setRenewalCookie(w http.ResponseWriter, cfg roleAuth.CookieConfig, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cookiePath(cfg),
		Domain:   cfg.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSiteMode(),
	})
}

// clearRenewalCookie expires the renewal cookie on the client.
func clearRenewalCookie(w http.ResponseWriter, cfg roleAuth.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cookiePath(cfg),
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSiteMode(),
	})
}

func cookiePath(cfg roleAuth.CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}
