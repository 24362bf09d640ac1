package web

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/notify"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

type okSender struct{}

func (okSender) Send(context.Context, int64, string) notify.Result { return notify.Result{OK: true} }

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	ledger *ledger.Service
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("loading templates: %v", err)
	}

	env := &testEnv{db: database, ledger: &ledger.Service{DB: database}}
	router, err := NewRouter(&Server{
		DB:        database,
		Templates: templates,
		JWTSecret: "test-secret",
		Ledger:    env.ledger,
		Sender:    okSender{},
		Objects:   storage.NewMemory(),
	})
	if err != nil {
		t.Fatalf("creating router: %v", err)
	}
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)

	createUser(t, database, "admin", "password1", model.RoleAdmin)
	return env
}

func createUser(t *testing.T, database *sql.DB, username, password, role string) {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), role); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
}

// newClient returns a client that keeps cookies and does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) login(t *testing.T, username, password string) *http.Client {
	t.Helper()
	c := newClient(t)
	resp, err := c.PostForm(e.server.URL+"/login", url.Values{"username": {username}, "password": {password}})
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login as %s: status %d", username, resp.StatusCode)
	}
	return c
}

func get(t *testing.T, c *http.Client, u string) (int, string) {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (e *testEnv) createLot(t *testing.T, name, caliber string, quantity, perUnit int) int64 {
	t.Helper()
	out, err := e.ledger.CreateItem(context.Background(), &model.ItemWithDetail{
		Item: model.Item{Name: name, Category: model.CategoryAmmo},
		Ammo: &model.AmmoDetail{Caliber: caliber, Quantity: quantity, Unit: model.UnitBox, RoundsPerUnit: perUnit},
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	return out.Item.ID
}

func TestParsePanel(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	id := env.createLot(t, "Federal 9mm", "9mm", 2, 50)

	tests := []struct {
		query   string
		kind    string
		wantErr bool
	}{
		{"", "closed", false},
		{"panel=bogus", "closed", false},
		{"panel=new", "new", false},
		{"panel=log-use", "log-use", false},
		{"panel=edit&id=" + strconv.FormatInt(id, 10), "edit", false},
		{"panel=edit&id=999", "", true},
		{"panel=edit&id=abc", "", true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		p, err := ParsePanel(ctx, env.db, q)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %v", tt.query, p)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.query, err)
			continue
		}
		if p.Kind() != tt.kind {
			t.Errorf("%q: kind = %q, want %q", tt.query, p.Kind(), tt.kind)
		}
	}

	q, _ := url.ParseQuery("panel=edit&id=" + strconv.FormatInt(id, 10))
	p, _ := ParsePanel(ctx, env.db, q)
	edit, ok := p.(PanelEditAmmo)
	if !ok {
		t.Fatalf("expected PanelEditAmmo, got %T", p)
	}
	if edit.Item.Name != "Federal 9mm" || edit.Detail.Caliber != "9mm" {
		t.Errorf("unexpected edit panel: %+v", edit)
	}
}

func TestLoginFlow(t *testing.T) {
	env := setupTestServer(t)
	c := newClient(t)

	resp, err := c.Get(env.server.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = c.PostForm(env.server.URL+"/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Incorrect username or password.") {
		t.Error("expected login error message on page")
	}

	c = env.login(t, "admin", "password1")
	status, body2 := get(t, c, env.server.URL+"/")
	if status != http.StatusOK || !strings.Contains(body2, "Overview") {
		t.Errorf("dashboard: %d", status)
	}

	resp, err = c.PostForm(env.server.URL+"/logout", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if status, _ := get(t, c, env.server.URL+"/"); status != http.StatusSeeOther {
		t.Errorf("expected redirect after logout, got %d", status)
	}
}

func TestAmmoPagePanels(t *testing.T) {
	env := setupTestServer(t)
	id := env.createLot(t, "Federal 9mm", "9mm", 2, 50)
	c := env.login(t, "admin", "password1")

	status, body := get(t, c, env.server.URL+"/ammo")
	if status != http.StatusOK {
		t.Fatalf("ammo page: %d", status)
	}
	if strings.Contains(body, "data-panel") {
		t.Error("closed panel should not render")
	}
	if !strings.Contains(body, "100 / 100") {
		t.Error("expected lot totals on page")
	}

	for _, kind := range []string{"new", "log-use"} {
		_, body := get(t, c, env.server.URL+"/ammo?panel="+kind)
		if !strings.Contains(body, `data-panel="`+kind+`"`) {
			t.Errorf("panel %s not rendered", kind)
		}
	}

	_, body = get(t, c, env.server.URL+"/ammo?panel=edit&id="+strconv.FormatInt(id, 10))
	if !strings.Contains(body, `data-panel="edit"`) || !strings.Contains(body, "Edit Federal 9mm") {
		t.Error("edit panel not rendered")
	}

	status, _ = get(t, c, env.server.URL+"/ammo?panel=edit&id=999")
	if status != http.StatusSeeOther {
		t.Errorf("missing lot: expected redirect, got %d", status)
	}
}

func TestAmmoLogUseSubmit(t *testing.T) {
	env := setupTestServer(t)
	id := env.createLot(t, "Federal 9mm", "9mm", 2, 50)
	c := env.login(t, "admin", "password1")

	resp, err := c.PostForm(env.server.URL+"/ammo/log-use", url.Values{
		"item_id": {strconv.FormatInt(id, 10), "999", ""},
		"rounds":  {"30", "5", ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("log use: %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `class="results"`) {
		t.Error("expected results table")
	}

	a, err := store.GetAmmoByItem(context.Background(), env.db, id)
	if err != nil || a == nil {
		t.Fatalf("getting ammo: %v", err)
	}
	if a.Available() != 70 {
		t.Errorf("available = %d, want 70", a.Available())
	}

	resp, err = c.PostForm(env.server.URL+"/ammo/log-use", url.Values{"item_id": {""}, "rounds": {""}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || !strings.Contains(resp.Header.Get("Location"), "error=") {
		t.Errorf("empty session: expected error redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestCalendarAccess(t *testing.T) {
	env := setupTestServer(t)
	createUser(t, env.db, "family", "password1", model.RoleFamily)
	family := env.login(t, "family", "password1")

	status, body := get(t, family, env.server.URL+"/calendar?month=2026-03")
	if status != http.StatusOK {
		t.Fatalf("calendar: %d", status)
	}
	if !strings.Contains(body, "March 2026") {
		t.Error("expected month heading")
	}
	if strings.Contains(body, `action="/days/`) {
		t.Error("family should not see day edit forms")
	}

	if status, _ := get(t, family, env.server.URL+"/ammo"); status != http.StatusForbidden {
		t.Errorf("family on /ammo: expected 403, got %d", status)
	}
}

func TestDaySubmit(t *testing.T) {
	env := setupTestServer(t)
	c := env.login(t, "admin", "password1")

	resp, err := c.PostForm(env.server.URL+"/days/2026-03-02", url.Values{
		"status":       {string(model.DayVacation)},
		"pto_fraction": {"1"},
		"location":     {"Bled"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || !strings.Contains(resp.Header.Get("Location"), "ok=") {
		t.Fatalf("save day: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	d, err := store.GetDay(context.Background(), env.db, "2026-03-02")
	if err != nil || d == nil {
		t.Fatalf("getting day: %v", err)
	}
	if d.Status != model.DayVacation || d.Location != "Bled" {
		t.Errorf("unexpected day: %+v", d)
	}

	resp, err = c.PostForm(env.server.URL+"/days/2026-03-02/clear", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if d, _ := store.GetDay(context.Background(), env.db, "2026-03-02"); d != nil {
		t.Error("expected day cleared")
	}

	resp, err = c.PostForm(env.server.URL+"/days/2026-03-03", url.Values{"status": {"NAPPING"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !strings.Contains(resp.Header.Get("Location"), "error=") {
		t.Error("expected validation error for unknown status")
	}
}

func TestPersonTestSendFlash(t *testing.T) {
	env := setupTestServer(t)
	c := env.login(t, "admin", "password1")
	p, err := store.CreatePerson(context.Background(), env.db, &model.NotificationPerson{
		Name: "Ana", Phone: "+12015550123", PreferredChannel: model.ChannelSMS, Active: true,
	})
	if err != nil {
		t.Fatalf("CreatePerson: %v", err)
	}

	resp, err := c.PostForm(env.server.URL+"/people/"+strconv.FormatInt(p.ID, 10)+"/test", url.Values{"message": {"hi"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	loc := resp.Header.Get("Location")
	if resp.StatusCode != http.StatusSeeOther || !strings.Contains(loc, "ok=") {
		t.Fatalf("send test: %d %q", resp.StatusCode, loc)
	}

	_, body := get(t, c, env.server.URL+loc)
	if !strings.Contains(body, `<p class="flash ok">Test sent to Ana.</p>`) {
		t.Error("expected success flash on alerts page")
	}

	// Flash messages clear themselves after five seconds.
	_, css := get(t, c, env.server.URL+"/static/style.css")
	if !strings.Contains(css, "animation: flash-fade .4s ease-in 5s forwards") {
		t.Error("expected flash fade-out rule in stylesheet")
	}
}
