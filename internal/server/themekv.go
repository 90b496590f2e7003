package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/termfolio/internal/theme"
)

const themeCookieMaxAge = 365 * 24 * 3600

// cookieKV persists preferences in the visitor's browser.
type cookieKV struct {
	c *gin.Context
}

func (kv cookieKV) Get(key string) (string, bool, error) {
	v, err := kv.c.Cookie(key)
	if err == http.ErrNoCookie {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (kv cookieKV) Set(key, value string) error {
	kv.c.SetSameSite(http.SameSiteLaxMode)
	kv.c.SetCookie(key, value, themeCookieMaxAge, "/", "", false, false)
	return nil
}

// themeStore reads the request's theme preference.
func themeStore(c *gin.Context) *theme.Store {
	// cookieKV.Get never fails on a missing cookie, so the error is only
	// about malformed headers; the store already fell back to dark.
	st, _ := theme.NewStore(cookieKV{c: c})
	return st
}
