package server

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
)

const adminCookie = "admin_token"

// Development credentials, only honoured in gin debug mode.
const (
	devAdminUsername = "admin"
	devAdminPassword = "admin123"
)

// adminCredentials returns the configured login, falling back to the
// development pair in debug mode. ok is false when the admin area should
// stay locked.
func (s *Server) adminCredentials() (user, pass string, ok bool) {
	user, pass = s.cfg.Admin.Username, s.cfg.Admin.Password
	if user != "" && pass != "" {
		return user, pass, true
	}
	if gin.Mode() != gin.DebugMode {
		return "", "", false
	}
	if user == "" {
		user = devAdminUsername
		log.Println("WARNING: Using default admin username. Set TERMFOLIO_ADMIN__USERNAME.")
	}
	if pass == "" {
		pass = devAdminPassword
		log.Println("WARNING: Using default admin password. Set TERMFOLIO_ADMIN__PASSWORD.")
	}
	return user, pass, true
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !secureEqual(token, s.adminToken) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTrackingMiddleware records page views with hashed IPs. Paths
// matching tracking.skip are ignored, and Do Not Track is honoured.
func (s *Server) visitorTrackingMiddleware() gin.HandlerFunc {
	skip := s.cfg.Tracking.Skip
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, pattern := range skip {
			if ok, _ := doublestar.Match(pattern, path); ok {
				c.Next()
				return
			}
		}
		if c.Request.Method != http.MethodGet || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		hashed := s.hasher.Hash(c.ClientIP())
		ua := c.GetHeader("User-Agent")
		at := s.now()
		ctx := context.WithoutCancel(c.Request.Context())
		go func() {
			if err := s.db.RecordVisit(ctx, hashed, ua, path, at); err != nil {
				log.Printf("Error recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}

func (s *Server) setupAdminRoutes() {
	r := s.engine

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		wantUser, wantPass, ok := s.adminCredentials()
		username := c.PostForm("username")
		password := c.PostForm("password")

		if ok && secureEqual(username, wantUser) && secureEqual(password, wantPass) {
			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", false, true)
			log.Printf("Admin login successful from %s", s.hasher.Hash(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		log.Printf("Failed admin login attempt from %s", s.hasher.Hash(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.db.Stats(c.Request.Context(), s.now())
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.db.Stats(c.Request.Context(), s.now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/messages", func(c *gin.Context) {
		msgs, err := s.db.RecentMessages(c.Request.Context(), 200)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
			return
		}
		c.JSON(http.StatusOK, msgs)
	})

	admin.DELETE("/messages/:id", func(c *gin.Context) {
		id := c.Param("id")
		found, err := s.db.DeleteMessage(c.Request.Context(), id)
		if err != nil {
			log.Printf("Error deleting message %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		go s.cleanupOldVisitorData(context.WithoutCancel(c.Request.Context()))
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.db.Stats(c.Request.Context(), s.now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		log.Printf("Admin stats exported by %s", s.hasher.Hash(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
