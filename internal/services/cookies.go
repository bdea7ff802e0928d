package services

import (
	"net/http"
	"net/url"
	"time"
)

// Cookie names set by the streaming API. The token pair is httpOnly
// server-side; the profile cookies are readable and drive the logged-in
// check without a network round trip.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
	CookieUsername     = "username"
	CookieEmail        = "email"
	CookieRole         = "role"
)

// Token lifetimes matching the server's cookie max-age values.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CookieJar is the subset of [http.CookieJar] the services need, satisfied by
// [net/http/cookiejar.Jar].
type CookieJar = http.CookieJar

// cookieValue returns the value of the named cookie for the API origin, or ""
// when absent.
func cookieValue(jar CookieJar, base *url.URL, name string) string {
	for _, c := range jar.Cookies(base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// IsLoggedIn reports whether the jar holds a complete profile cookie set.
// Presence of username and email is the logged-in signal; the access token is
// httpOnly in the browser deployment and may rotate underneath us.
func IsLoggedIn(jar CookieJar, base *url.URL) bool {
	return cookieValue(jar, base, CookieUsername) != "" && cookieValue(jar, base, CookieEmail) != ""
}

// ProfileFromCookies builds a [User] from the readable profile cookies.
// Returns nil when the jar holds no session.
func ProfileFromCookies(jar CookieJar, base *url.URL) *User {
	if !IsLoggedIn(jar, base) {
		return nil
	}
	return &User{
		Username: cookieValue(jar, base, CookieUsername),
		Email:    cookieValue(jar, base, CookieEmail),
		Role:     cookieValue(jar, base, CookieRole),
	}
}

// ClearSessionCookies expires every session cookie for the API origin.
func ClearSessionCookies(jar CookieJar, base *url.URL) {
	names := []string{CookieAccessToken, CookieRefreshToken, CookieUsername, CookieEmail, CookieRole}
	expired := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		expired = append(expired, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
	jar.SetCookies(base, expired)
}
