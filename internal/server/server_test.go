package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/store"
	"github.com/Zachkp/termfolio/internal/typewriter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSender struct {
	mu   sync.Mutex
	got  []contact.Payload
	fail error
}

func (f *fakeSender) Send(_ context.Context, p contact.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.got = append(f.got, p)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, sender contact.Sender, db *store.DB, edit func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Admin.Username = "root"
	cfg.Admin.Password = "hunter22"
	if edit != nil {
		edit(cfg)
	}
	p, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	s, err := New(Options{
		Config:  cfg,
		Content: p,
		DB:      db,
		Sender:  sender,
		Delays:  typewriter.Delays{Typing: time.Millisecond, Deleting: time.Millisecond, Hold: time.Millisecond, Next: time.Millisecond},
		Now:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNewRequiresSender(t *testing.T) {
	p, _ := content.Default()
	if _, err := New(Options{Content: p}); err == nil {
		t.Fatal("expected error without sender")
	}
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	w := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`data-theme="dark"`,
		"Sam Okafor",
		`id="about"`, `id="skills"`, `id="projects"`, `id="certifications"`, `id="contact"`,
		`data-threshold="0.2"`,
		`data-duration="600"`,
		`data-stagger="100"`,
		`sse-connect="/typewriter"`,
		`data-scroll-flag="300"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	order := []string{`id="about"`, `id="skills"`, `id="projects"`, `id="certifications"`, `id="contact"`}
	last := -1
	for _, id := range order {
		i := strings.Index(body, id)
		if i < last {
			t.Fatalf("%s out of order", id)
		}
		last = i
	}
}

func TestRevealOnceFromConfig(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, func(c *config.Config) { c.Reveal.Once = true })
	w := do(s, httptest.NewRequest(http.MethodGet, "/section/about", nil))
	if !strings.Contains(w.Body.String(), `data-latch="true"`) {
		t.Fatalf("expected once attribute, got %s", w.Body.String())
	}
}

func TestSection(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/section/projects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `id="projects"`) || strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("expected bare projects fragment, got %s", w.Body.String())
	}

	w = do(s, httptest.NewRequest(http.MethodGet, "/section/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown section status = %d", w.Code)
	}
}

func TestThemeToggle(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.Header.Set("HX-Request", "true")
	w := do(s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Theme"); got != "light" {
		t.Fatalf("X-Theme = %q, want light", got)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "theme" || cookies[0].Value != "light" {
		t.Fatalf("cookies = %v", cookies)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = do(s, req)
	if !strings.Contains(w.Body.String(), `<html lang="en" data-theme="light">`) {
		t.Fatal("persisted theme not applied")
	}

	req = httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.AddCookie(cookies[0])
	req.Header.Set("Referer", "/privacy")
	w = do(s, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/privacy" {
		t.Fatalf("status = %d location = %q", w.Code, w.Header().Get("Location"))
	}
	if got := w.Header().Get("X-Theme"); got != "dark" {
		t.Fatalf("second toggle X-Theme = %q, want dark", got)
	}
}

func TestUnknownThemeCookieFallsBackToDark(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/privacy", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "sepia"})
	w := do(s, req)
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Fatal("expected dark fallback")
	}
}

func TestTypewriterStream(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/typewriter", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	role := s.Content().Profile.Roles[0]
	var frames []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() && len(frames) < 3 {
		if data, ok := strings.CutPrefix(sc.Text(), "data:"); ok {
			frames = append(frames, data)
		}
	}
	cancel()

	if len(frames) < 3 {
		t.Fatalf("got %d frames", len(frames))
	}
	rs := []rune(role)
	for i, f := range frames {
		if want := string(rs[:i+1]); f != want {
			t.Fatalf("frame %d = %q, want %q", i, f, want)
		}
	}
}

func TestContactFormPartial(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	w := do(s, httptest.NewRequest(http.MethodGet, "/contact-form", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `id="contact-form"`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestContactFormValidationKeepsValues(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(t, sender, nil, nil)
	w := do(s, postForm("/contact", url.Values{
		"name":    {"A"},
		"email":   {"ada@example.com"},
		"message": {"Hello there, world"},
	}))
	body := w.Body.String()
	if !strings.Contains(body, contact.MsgShortName) {
		t.Fatalf("missing validation message: %s", body)
	}
	if !strings.Contains(body, `value="ada@example.com"`) || !strings.Contains(body, "Hello there, world") {
		t.Fatal("form values were not preserved")
	}
	if sender.count() != 0 {
		t.Fatal("invalid message was sent")
	}
}

func TestContactFormSuccessClearsForm(t *testing.T) {
	sender := &fakeSender{}
	db := openDB(t)
	s := newTestServer(t, sender, db, nil)
	w := do(s, postForm("/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello there, world"},
	}))
	body := w.Body.String()
	if !strings.Contains(body, "Thank you for your message!") {
		t.Fatalf("missing success toast: %s", body)
	}
	if strings.Contains(body, `value="Ada"`) {
		t.Fatal("form was not cleared")
	}
	if sender.count() != 1 {
		t.Fatalf("sent %d messages", sender.count())
	}

	msgs, err := db.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || !msgs[0].Delivered || msgs[0].Name != "Ada" {
		t.Fatalf("archived = %+v", msgs)
	}
}

func TestContactFormSenderFailureKeepsValues(t *testing.T) {
	sender := &fakeSender{fail: errors.New("smtp down")}
	db := openDB(t)
	s := newTestServer(t, sender, db, nil)
	w := do(s, postForm("/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello there, world"},
	}))
	body := w.Body.String()
	if !strings.Contains(body, "Failed to send message") {
		t.Fatalf("missing failure toast: %s", body)
	}
	if !strings.Contains(body, `value="Ada"`) {
		t.Fatal("form values were not preserved")
	}

	msgs, err := db.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Delivered {
		t.Fatalf("archived = %+v", msgs)
	}
}

func TestContactAPI(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fail   error
		status int
		ok     bool
		msg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, false, "Invalid request body"},
		{"missing", `{"name":"Ada"}`, nil, http.StatusBadRequest, false, contact.MsgMissing},
		{"bad email", `{"name":"Ada","email":"nope","message":"Hello there, world"}`, nil, http.StatusBadRequest, false, contact.MsgInvalidEmail},
		{"sender fails", `{"name":"Ada","email":"ada@example.com","message":"Hello there, world"}`, errors.New("boom"), http.StatusBadGateway, false, "Failed to send message. Please try again."},
		{"ok", `{"name":"Ada","email":"ada@example.com","message":"Hello there, world"}`, nil, http.StatusOK, true, "Your message has been sent successfully."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeSender{fail: tt.fail}, nil, nil)
			w := do(s, postJSON("/api/contact", tt.body))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var resp contact.Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Success != tt.ok || resp.Message != tt.msg {
				t.Fatalf("resp = %+v", resp)
			}
		})
	}
}

func TestContactAPIRateLimited(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(t, sender, nil, func(c *config.Config) {
		c.Rate.PerMinute = 1
		c.Rate.Burst = 1
	})
	body := `{"name":"Ada","email":"ada@example.com","message":"Hello there, world"}`

	if w := do(s, postJSON("/api/contact", body)); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	// Invalid submissions do not spend the budget.
	if w := do(s, postJSON("/api/contact", `{"name":"A","email":"a@b.co","message":"Hello there, world"}`)); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status = %d", w.Code)
	}
	if w := do(s, postJSON("/api/contact", body)); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", w.Code)
	}
	if sender.count() != 1 {
		t.Fatalf("sent %d messages", sender.count())
	}
}

func TestContactFormRateLimitedShowsToast(t *testing.T) {
	sender := &fakeSender{}
	s := newTestServer(t, sender, nil, func(c *config.Config) {
		c.Rate.PerMinute = 1
		c.Rate.Burst = 1
	})
	form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "message": {"Hello there, world"}}

	if w := do(s, postForm("/contact", form)); w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w := do(s, postForm("/contact", form))
	if w.Code != http.StatusOK {
		t.Fatalf("limited status = %d; htmx only swaps 2xx", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "toast-error") || !strings.Contains(body, msgRateLimited) {
		t.Fatalf("expected rate limit toast, got %s", body)
	}
	if !strings.Contains(body, `value="Ada"`) {
		t.Fatalf("values not kept: %s", body)
	}
	if sender.count() != 1 {
		t.Fatalf("sent %d messages", sender.count())
	}
}

func TestThemeToggleStaysOnSite(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	for _, tt := range []struct {
		referer string
		want    string
	}{
		{"", "/"},
		{"/privacy", "/privacy"},
		{"http://example.com/privacy?x=1", "/privacy"},
		{"https://evil.example/phish", "/phish"},
		{"//evil.example/", "/"},
		{"javascript:alert(1)", "/"},
		{`/\evil.example`, "/"},
	} {
		req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		w := do(s, req)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("%q: status = %d", tt.referer, w.Code)
		}
		if got := w.Header().Get("Location"); got != tt.want {
			t.Fatalf("%q: location = %q; want %q", tt.referer, got, tt.want)
		}
	}
}

func TestIPLimiterPrune(t *testing.T) {
	l := newIPLimiter(60, 1)
	now := fixedNow
	if !l.Allow("a", now) || l.Allow("a", now) {
		t.Fatal("burst of one not honoured")
	}
	if !l.Allow("a", now.Add(time.Second)) {
		t.Fatal("token not refilled after a second")
	}
	l.Prune(now.Add(2*time.Hour), time.Hour)
	if len(l.limiters) != 0 {
		t.Fatalf("limiters = %d after prune", len(l.limiters))
	}

	unlimited := newIPLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow("b", now) {
			t.Fatal("zero rate should not limit")
		}
	}
}

func TestAdminDisabledWithoutDB(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	w := do(s, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	db := openDB(t)
	s := newTestServer(t, &fakeSender{}, db, nil)

	w := do(s, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/admin/login" {
		t.Fatalf("unauthenticated status = %d", w.Code)
	}

	w = do(s, postForm("/admin/login", url.Values{"username": {"root"}, "password": {"wrong"}}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}

	w = do(s, postForm("/admin/login", url.Values{"username": {"root"}, "password": {"hunter22"}}))
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d", w.Code)
	}
	var token *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookie {
			token = c
		}
	}
	if token == nil {
		t.Fatal("no admin cookie")
	}

	if _, err := db.SaveMessage(context.Background(), "Ada", "ada@example.com", "Hello there, world", fixedNow); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(token)
	w = do(s, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ada@example.com") {
		t.Fatalf("dashboard status = %d body = %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.AddCookie(token)
	w = do(s, req)
	var stats store.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalMessages != 1 {
		t.Fatalf("TotalMessages = %d", stats.TotalMessages)
	}

	req = httptest.NewRequest(http.MethodDelete, "/admin/messages/missing", nil)
	req.AddCookie(token)
	if w = do(s, req); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d", w.Code)
	}
}

func TestAdminLockedWithoutCredentials(t *testing.T) {
	db := openDB(t)
	s := newTestServer(t, &fakeSender{}, db, func(c *config.Config) {
		c.Admin.Username = ""
		c.Admin.Password = ""
	})
	w := do(s, postForm("/admin/login", url.Values{"username": {"admin"}, "password": {"admin123"}}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d; dev credentials must not work outside debug mode", w.Code)
	}
}

func TestVisitorTracking(t *testing.T) {
	db := openDB(t)
	s := newTestServer(t, &fakeSender{}, db, nil)

	do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/section/about", nil))
	dnt := httptest.NewRequest(http.MethodGet, "/", nil)
	dnt.Header.Set("DNT", "1")
	do(s, dnt)

	var visits []store.Visitor
	deadline := time.Now().Add(2 * time.Second)
	for len(visits) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		var err error
		visits, err = db.RecentVisitors(context.Background(), 10)
		if err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	visits, _ = db.RecentVisitors(context.Background(), 10)
	if len(visits) != 1 || visits[0].Path != "/" {
		t.Fatalf("visits = %+v", visits)
	}
	if visits[0].HashedIP == "" || strings.Contains(visits[0].HashedIP, "192.0.2.1") {
		t.Fatalf("ip not hashed: %q", visits[0].HashedIP)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeSender{}, nil, nil)
	w := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
