package server

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/reveal"
	"github.com/Zachkp/termfolio/internal/theme"
	"github.com/Zachkp/termfolio/internal/typewriter"
)

const msgRateLimited = "Too many messages. Please wait a minute and try again."

// revealAttrs is what the browser needs to run the reveal controller for one
// panel.
type revealAttrs struct {
	Threshold float64
	Once      bool
	Duration  time.Duration
	Stagger   time.Duration
	Offset    float64
}

type panelView struct {
	content.Panel
	Reveal revealAttrs
}

type projectView struct {
	content.Project
	Code template.HTML
}

type formView struct {
	Values       contact.Payload
	Notification *contact.Notification
}

type pageData struct {
	Theme          theme.Theme
	Profile        content.Profile
	About          template.HTML
	AboutCode      template.HTML
	SkillGroups    []content.SkillGroup
	Tags           []string
	Projects       []projectView
	Certifications []content.Certification
	Panels         map[string]panelView
	Form           formView
	NavbarOffset   float64
	BackToTop      float64
	Year           int
}

func (s *Server) setupRoutes() {
	r := s.engine

	r.GET("/", s.handleHome)
	r.GET("/section/:id", s.handleSection)
	r.POST("/theme/toggle", s.handleThemeToggle)
	r.GET("/typewriter", s.handleTypewriter)
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact-form.html", formView{})
	})
	r.POST("/contact", s.handleContactForm)
	r.POST("/api/contact", s.handleContactAPI)
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
			"Theme": themeStore(c).Get(),
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) pageData(c *gin.Context) (*pageData, error) {
	p := s.Content()
	about, err := content.RenderMarkdown(p.About)
	if err != nil {
		return nil, err
	}

	attrs := revealAttrs{
		Threshold: s.cfg.Reveal.Threshold,
		Once:      s.cfg.Reveal.Once,
		Duration:  reveal.DefaultDuration,
		Stagger:   reveal.DefaultStagger,
		Offset:    reveal.DefaultOffset,
	}
	panels := make(map[string]panelView)
	for _, panel := range p.Panels() {
		panels[panel.ID] = panelView{Panel: panel, Reveal: attrs}
	}

	projects := make([]projectView, len(p.Projects))
	for i, pr := range p.Projects {
		projects[i] = projectView{Project: pr, Code: content.Highlight(pr.Code)}
	}

	return &pageData{
		Theme:          themeStore(c).Get(),
		Profile:        p.Profile,
		About:          about,
		AboutCode:      content.Highlight(p.AboutCode),
		SkillGroups:    p.SkillGroups,
		Tags:           p.Tags,
		Projects:       projects,
		Certifications: p.Certifications,
		Panels:         panels,
		NavbarOffset:   reveal.NavbarShadow.Offset,
		BackToTop:      reveal.BackToTop.Offset,
		Year:           s.now().Year(),
	}, nil
}

func (s *Server) handleHome(c *gin.Context) {
	data, err := s.pageData(c)
	if err != nil {
		log.Printf("Error rendering page: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// handleSection renders one panel for HTMX swaps.
func (s *Server) handleSection(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.Content().Panel(id); !ok {
		c.String(http.StatusNotFound, "unknown section")
		return
	}
	data, err := s.pageData(c)
	if err != nil {
		log.Printf("Error rendering section %s: %v", id, err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.HTML(http.StatusOK, "section-"+id+".html", data)
}

func (s *Server) handleThemeToggle(c *gin.Context) {
	st := themeStore(c)
	next, err := st.Toggle()
	if err != nil {
		log.Printf("Error persisting theme: %v", err)
	}
	c.Header("X-Theme", next.String())

	if c.GetHeader("HX-Request") == "true" {
		c.HTML(http.StatusOK, "theme-toggle.html", gin.H{"Theme": next})
		return
	}
	c.Redirect(http.StatusSeeOther, backPath(c.Request.Referer()))
}

// backPath keeps only the path of a Referer so the redirect stays on this
// site.
func backPath(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.ContainsRune(u.Path, '\\') {
		return "/"
	}
	return u.Path
}

// handleTypewriter streams typewriter frames as server-sent events until the
// client goes away.
func (s *Server) handleTypewriter(c *gin.Context) {
	m, err := typewriter.New(s.Content().Profile.Roles, typewriter.WithDelays(s.delays))
	if err != nil {
		c.String(http.StatusServiceUnavailable, "no roles configured")
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	err = m.Run(c.Request.Context(), func(st typewriter.State) {
		c.SSEvent("role", st.Text)
		c.Writer.Flush()
	})
	if err != nil && err != context.Canceled {
		log.Printf("typewriter stream ended: %v", err)
	}
}

func (s *Server) handleContactForm(c *gin.Context) {
	var p contact.Payload
	if err := c.ShouldBind(&p); err != nil {
		n := contact.NotifyFailure(err)
		c.HTML(http.StatusOK, "contact-form.html", formView{Values: p, Notification: &n})
		return
	}
	if err := contact.Validate(p); err != nil {
		n := contact.NotifyFailure(err)
		c.HTML(http.StatusOK, "contact-form.html", formView{Values: p, Notification: &n})
		return
	}

	if !s.limiter.Allow(s.hasher.Hash(c.ClientIP()), s.now()) {
		n := contact.Notification{Kind: contact.KindError, Title: "Error", Text: msgRateLimited}
		c.HTML(http.StatusOK, "contact-form.html", formView{Values: p, Notification: &n})
		return
	}

	if err := s.deliver(c.Request.Context(), p); err != nil {
		// Keep what the visitor typed so they can retry.
		n := contact.NotifyFailure(err)
		c.HTML(http.StatusOK, "contact-form.html", formView{Values: p, Notification: &n})
		return
	}

	n := contact.NotifySuccess("Thank you for your message! I'll get back to you soon.")
	c.HTML(http.StatusOK, "contact-form.html", formView{Notification: &n})
}

func (s *Server) handleContactAPI(c *gin.Context) {
	var p contact.Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, contact.Response{Success: false, Message: "Invalid request body"})
		return
	}
	if err := contact.Validate(p); err != nil {
		c.JSON(http.StatusBadRequest, contact.Response{Success: false, Message: contact.NotifyFailure(err).Text})
		return
	}

	if !s.limiter.Allow(s.hasher.Hash(c.ClientIP()), s.now()) {
		c.JSON(http.StatusTooManyRequests, contact.Response{Success: false, Message: msgRateLimited})
		return
	}

	if err := s.deliver(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadGateway, contact.Response{Success: false, Message: contact.NotifyFailure(err).Text})
		return
	}
	c.JSON(http.StatusOK, contact.Response{Success: true, Message: "Your message has been sent successfully."})
}

// deliver validates p, archives it when a database is configured and hands
// it to the sender once.
func (s *Server) deliver(ctx context.Context, p contact.Payload) error {
	if err := contact.Validate(p); err != nil {
		return err
	}

	var id string
	if s.db != nil {
		var err error
		id, err = s.db.SaveMessage(ctx, p.Name, p.Email, p.Message, s.now())
		if err != nil {
			log.Printf("Error archiving message: %v", err)
		}
	}

	if err := s.sender.Send(ctx, p); err != nil {
		log.Printf("Error delivering contact message: %v", err)
		return err
	}

	if id != "" {
		if err := s.db.MarkDelivered(ctx, id); err != nil {
			log.Printf("Error marking message delivered: %v", err)
		}
	}
	return nil
}
