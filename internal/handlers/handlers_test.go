package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yelpcamp/apiserver/internal/services"
	"github.com/yelpcamp/apiserver/internal/session"
	"github.com/yelpcamp/apiserver/internal/store/memory"
	"github.com/yelpcamp/apiserver/types"
)

const testPassword = "correct horse"

// testApp serves the full route table over in-memory storage.
type testApp struct {
	db          *memory.DB
	users       *services.UserService
	campgrounds *services.CampgroundService
	reviews     *services.ReviewService
	server      *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memory.New()
	users := services.NewUserService(db.Users(), &services.PBKDF2Hasher{Iterations: 1, KeyLen: 32, SaltLen: 8})
	campgrounds := services.NewCampgroundService(db.Campgrounds(), db.Users(), db.Reviews(), logger)
	campgrounds.OnDelete(services.NewReviewCascade(db.Reviews()))
	reviews := services.NewReviewService(db.Reviews(), db.Campgrounds(), logger)

	views := NewViews(users, logger)
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", session.Options{ErrorHandler: views.SessionError}, logger)
	gate := NewGate(campgrounds, reviews, views)

	router := chi.NewRouter()
	router.Use(MethodOverride)
	router.Get("/healthz", Healthz)
	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Get("/", views.Home)
		AuthRouter(r, users, sessions, views, gate)
		r.Route("/campgrounds", func(r chi.Router) {
			CampgroundRouter(r, campgrounds, reviews, views, gate)
		})
	})
	router.NotFound(NotFound)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{db: db, users: users, campgrounds: campgrounds, reviews: reviews, server: server}
}

func (a *testApp) register(t *testing.T, username string) types.User {
	t.Helper()
	user, err := a.users.Register(context.Background(), username, testPassword)
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return user
}

func (a *testApp) createCampground(t *testing.T, author types.User, title string) types.Campground {
	t.Helper()
	campground, err := a.campgrounds.Create(context.Background(), author.ID, services.CampgroundInput{
		Title:       title,
		Description: "Pines and a creek.",
		Price:       12,
		Location:    "Sisters, Oregon",
		Geometry:    &types.Geometry{Type: types.GeometryTypePoint, Coordinates: []float64{-121.5, 44.3}},
	}, nil)
	if err != nil {
		t.Fatalf("Create campground: %v", err)
	}
	return campground
}

// client is a browser stand-in: it keeps cookies and does not follow
// redirects so tests can assert on them.
type client struct {
	t    *testing.T
	app  *testApp
	http *http.Client
}

func (a *testApp) newClient(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &client{
		t:   t,
		app: a,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *client) do(method, path string, form url.Values) *http.Response {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.app.server.URL+path, body)
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// redirect asserts a 302 to want.
func (c *client) redirect(resp *http.Response, want string) {
	c.t.Helper()
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("status = %d; want %d", resp.StatusCode, http.StatusFound)
	}
	if got := resp.Header.Get("Location"); got != want {
		c.t.Fatalf("Location = %q; want %q", got, want)
	}
}

type viewBody struct {
	View        string          `json:"view"`
	CurrentUser *types.User     `json:"current_user"`
	Success     []string        `json:"success"`
	Error       []string        `json:"error"`
	Campground  json.RawMessage `json:"campground"`
	Campgrounds json.RawMessage `json:"campgrounds"`
}

func (c *client) view(path string) viewBody {
	c.t.Helper()
	resp := c.do(http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	var v viewBody
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		c.t.Fatalf("decode view: %v", err)
	}
	return v
}

func (c *client) login(username string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {testPassword}})
	if resp.StatusCode != http.StatusFound {
		c.t.Fatalf("login status = %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	resp := app.newClient(t).do(http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	app := newTestApp(t)
	resp := app.newClient(t).do(http.MethodGet, "/nowhere", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRegisterLogsInWithOneHopFlash(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	resp := c.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {testPassword}})
	c.redirect(resp, "/campgrounds")

	v := c.view("/campgrounds")
	if v.CurrentUser == nil || v.CurrentUser.Username != "alice" {
		t.Fatalf("current_user = %+v; want alice", v.CurrentUser)
	}
	if len(v.Success) != 1 || v.Success[0] != "Welcome to Yelp Camp!" {
		t.Fatalf("success = %v", v.Success)
	}

	again := c.view("/campgrounds")
	if len(again.Success) != 0 {
		t.Fatalf("flash shown twice: %v", again.Success)
	}
	if again.CurrentUser == nil {
		t.Fatal("user dropped from session")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)

	resp := c.do(http.MethodPost, "/register", url.Values{"username": {"alice"}, "password": {"other"}})
	c.redirect(resp, "/register")

	v := c.view("/register")
	if len(v.Error) != 1 {
		t.Fatalf("error = %v", v.Error)
	}
	if v.CurrentUser != nil {
		t.Fatal("duplicate registration logged in")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {testPassword}},
	} {
		resp := c.do(http.MethodPost, "/login", form)
		c.redirect(resp, "/login")

		v := c.view("/login")
		if len(v.Error) != 1 || v.Error[0] != msgBadCredentials {
			t.Fatalf("error = %v", v.Error)
		}
		if v.CurrentUser != nil {
			t.Fatal("bad credentials logged in")
		}
	}
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)

	resp := c.do(http.MethodGet, "/campgrounds/new", nil)
	c.redirect(resp, "/login")

	v := c.view("/login")
	if len(v.Error) != 1 || v.Error[0] != msgMustSignIn {
		t.Fatalf("error = %v", v.Error)
	}

	resp = c.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {testPassword}})
	c.redirect(resp, "/campgrounds/new")

	landing := c.view("/campgrounds/new")
	if landing.View != "campgrounds/new" {
		t.Fatalf("view = %q", landing.View)
	}
	if len(landing.Success) != 1 || landing.Success[0] != "Welcome back!" {
		t.Fatalf("success = %v", landing.Success)
	}
}

func TestLoginRotatesSessionCookie(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)

	c.view("/")
	base, _ := url.Parse(app.server.URL)
	before := c.http.Jar.Cookies(base)
	if len(before) != 1 {
		t.Fatalf("cookies before login = %v", before)
	}

	c.login("alice")
	after := c.http.Jar.Cookies(base)
	if len(after) != 1 || after[0].Value == before[0].Value {
		t.Fatal("session cookie was not rotated on login")
	}
}

func TestLogoutKeepsGoodbyeFlash(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)
	c.login("alice")

	resp := c.do(http.MethodPost, "/logout", nil)
	c.redirect(resp, "/campgrounds")

	v := c.view("/campgrounds")
	if v.CurrentUser != nil {
		t.Fatalf("still logged in as %+v", v.CurrentUser)
	}
	if len(v.Success) != 1 || v.Success[0] != "Goodbye!" {
		t.Fatalf("success = %v", v.Success)
	}
}

func TestMeRequiresLogin(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	c := app.newClient(t)

	c.redirect(c.do(http.MethodGet, "/me", nil), "/login")

	c.login("alice")
	resp := c.do(http.MethodGet, "/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var user types.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("me = %s; want %s", user.ID, alice.ID)
	}
}

func TestListCampgroundsPaginates(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	for _, title := range []string{"One", "Two", "Three"} {
		app.createCampground(t, alice, title)
	}
	c := app.newClient(t)

	v := c.view("/campgrounds?page=1&limit=2")
	var list CampgroundListResponse
	if err := json.Unmarshal(v.Campgrounds, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 3 || len(list.Items) != 2 || list.Page != 1 || list.Limit != 2 {
		t.Fatalf("list = total %d items %d page %d limit %d", list.Total, len(list.Items), list.Page, list.Limit)
	}
	if list.Features.Type != "FeatureCollection" || len(list.Features.Features) != 2 {
		t.Fatalf("features = %+v", list.Features)
	}
	if list.Features.Features[0].Properties.PopUpMarkup == "" {
		t.Fatal("feature missing popup markup")
	}

	resp := c.do(http.MethodGet, "/campgrounds?page=0", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("page=0 status = %d", resp.StatusCode)
	}
}

func TestCreateCampgroundFromForm(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)
	c.login("alice")

	resp := c.do(http.MethodPost, "/campgrounds", url.Values{
		"campground[title]":       {"Tumalo"},
		"campground[description]": {"River sites."},
		"campground[price]":       {"18.5"},
		"campground[location]":    {"Bend, Oregon"},
		"campground[longitude]":   {"-121.33"},
		"campground[latitude]":    {"44.12"},
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "/campgrounds/") {
		t.Fatalf("Location = %q", location)
	}

	v := c.view(location)
	var detail struct {
		Title    string          `json:"title"`
		Price    float64         `json:"price"`
		Geometry *types.Geometry `json:"geometry"`
		Author   *types.User     `json:"author"`
	}
	if err := json.Unmarshal(v.Campground, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Title != "Tumalo" || detail.Price != 18.5 {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Geometry == nil || detail.Geometry.Coordinates[0] != -121.33 {
		t.Fatalf("geometry = %+v", detail.Geometry)
	}
	if detail.Author == nil || detail.Author.Username != "alice" {
		t.Fatalf("author = %+v", detail.Author)
	}
	if len(v.Success) != 1 {
		t.Fatalf("success = %v", v.Success)
	}
}

func TestCreateCampgroundValidationFailure(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice")
	c := app.newClient(t)
	c.login("alice")

	resp := c.do(http.MethodPost, "/campgrounds", url.Values{"campground[price]": {"abc"}})
	c.redirect(resp, "/campgrounds/new")

	v := c.view("/campgrounds/new")
	if len(v.Error) != 1 || v.Error[0] != "invalid price" {
		t.Fatalf("error = %v", v.Error)
	}
}

func TestShowMissingCampgroundRedirects(t *testing.T) {
	app := newTestApp(t)
	c := app.newClient(t)

	c.redirect(c.do(http.MethodGet, "/campgrounds/"+uuid.NewString(), nil), "/campgrounds")
	v := c.view("/campgrounds")
	if len(v.Error) != 1 || v.Error[0] != msgCampgroundNotFound {
		t.Fatalf("error = %v", v.Error)
	}
}

func TestNonAuthorCannotDeleteCampground(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	app.register(t, "bob")
	campground := app.createCampground(t, alice, "Alice's Meadow")

	bob := app.newClient(t)
	bob.login("bob")

	resp := bob.do(http.MethodPost, "/campgrounds/"+campground.ID+"?_method=DELETE", url.Values{})
	bob.redirect(resp, "/campgrounds/"+campground.ID)

	v := bob.view("/campgrounds/" + campground.ID)
	if len(v.Error) != 1 || v.Error[0] != msgNoPermission {
		t.Fatalf("error = %v", v.Error)
	}
	if _, err := app.campgrounds.Get(context.Background(), campground.ID); err != nil {
		t.Fatalf("campground gone after rejected delete: %v", err)
	}
}

func TestNonAuthorCannotEditCampground(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	app.register(t, "bob")
	campground := app.createCampground(t, alice, "Alice's Meadow")

	bob := app.newClient(t)
	bob.login("bob")

	bob.redirect(bob.do(http.MethodGet, "/campgrounds/"+campground.ID+"/edit", nil), "/campgrounds/"+campground.ID)

	resp := bob.do(http.MethodPost, "/campgrounds/"+campground.ID+"?_method=PUT", url.Values{"campground[title]": {"Bob's now"}})
	bob.redirect(resp, "/campgrounds/"+campground.ID)

	got, _ := app.campgrounds.Get(context.Background(), campground.ID)
	if got.Title != "Alice's Meadow" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestAuthorUpdatesCampground(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	campground := app.createCampground(t, alice, "Old name")

	c := app.newClient(t)
	c.login("alice")

	edit := c.view("/campgrounds/" + campground.ID + "/edit")
	if edit.View != "campgrounds/edit" {
		t.Fatalf("view = %q", edit.View)
	}

	resp := c.do(http.MethodPost, "/campgrounds/"+campground.ID+"?_method=PUT", url.Values{
		"campground[title]":       {"New name"},
		"campground[description]": {campground.Description},
		"campground[price]":       {"20"},
		"campground[location]":    {campground.Location},
	})
	c.redirect(resp, "/campgrounds/"+campground.ID)

	got, _ := app.campgrounds.Get(context.Background(), campground.ID)
	if got.Title != "New name" || got.Price != 20 {
		t.Fatalf("campground = %+v", got)
	}
	if got.Geometry == nil {
		t.Fatal("geometry dropped by an update without coordinates")
	}
}

func TestAuthorDeleteCascadesReviews(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")
	campground := app.createCampground(t, alice, "Doomed")
	for i := 0; i < 2; i++ {
		if _, err := app.reviews.Create(context.Background(), bob.ID, campground.ID, services.ReviewInput{Body: "Nice", Rating: 4}); err != nil {
			t.Fatalf("Create review: %v", err)
		}
	}
	if app.db.ReviewCount() != 2 {
		t.Fatalf("reviews = %d", app.db.ReviewCount())
	}

	c := app.newClient(t)
	c.login("alice")

	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/campgrounds/"+campground.ID, nil)
	req.Header.Set("X-HTTP-Method-Override", http.MethodDelete)
	resp, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	c.redirect(resp, "/campgrounds")

	if _, err := app.campgrounds.Get(context.Background(), campground.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	if n := app.db.ReviewCount(); n != 0 {
		t.Fatalf("reviews left after cascade = %d", n)
	}

	v := c.view("/campgrounds")
	if len(v.Success) != 1 || v.Success[0] != "Successfully deleted campground" {
		t.Fatalf("success = %v", v.Success)
	}
}

func TestAnonymousReviewRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	campground := app.createCampground(t, alice, "Open")
	c := app.newClient(t)

	resp := c.do(http.MethodPost, "/campgrounds/"+campground.ID+"/reviews", url.Values{
		"review[body]":   {"Sneaky"},
		"review[rating]": {"5"},
	})
	c.redirect(resp, "/login")

	v := c.view("/login")
	if len(v.Error) != 1 || v.Error[0] != msgMustSignIn {
		t.Fatalf("error = %v", v.Error)
	}
	if n := app.db.ReviewCount(); n != 0 {
		t.Fatalf("reviews = %d", n)
	}
}

func TestReviewLifecycle(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	app.register(t, "bob")
	campground := app.createCampground(t, alice, "Reviewed")
	path := "/campgrounds/" + campground.ID

	bob := app.newClient(t)
	bob.login("bob")
	resp := bob.do(http.MethodPost, path+"/reviews", url.Values{
		"review[title]":  {"Great"},
		"review[body]":   {"Loved the creek"},
		"review[rating]": {"5"},
	})
	bob.redirect(resp, path)

	got, _ := app.campgrounds.Get(context.Background(), campground.ID)
	if len(got.ReviewIDs) != 1 {
		t.Fatalf("review ids = %v", got.ReviewIDs)
	}
	reviewID := got.ReviewIDs[0]

	v := bob.view(path)
	var detail struct {
		Reviews []json.RawMessage `json:"reviews"`
	}
	if err := json.Unmarshal(v.Campground, &detail); err != nil || len(detail.Reviews) != 1 {
		t.Fatalf("reviews = %v, %v", detail.Reviews, err)
	}
	if len(v.Success) != 1 || v.Success[0] != "Created new review!" {
		t.Fatalf("success = %v", v.Success)
	}

	aliceClient := app.newClient(t)
	aliceClient.login("alice")
	resp = aliceClient.do(http.MethodPost, path+"/reviews/"+reviewID+"?_method=DELETE", url.Values{})
	aliceClient.redirect(resp, path)
	if app.db.ReviewCount() != 1 {
		t.Fatal("campground author deleted someone else's review")
	}

	resp = bob.do(http.MethodPost, path+"/reviews/"+reviewID+"?_method=DELETE", url.Values{})
	bob.redirect(resp, path)
	if app.db.ReviewCount() != 0 {
		t.Fatal("review not deleted by its author")
	}
	got, _ = app.campgrounds.Get(context.Background(), campground.ID)
	if len(got.ReviewIDs) != 0 {
		t.Fatalf("campground still lists %v", got.ReviewIDs)
	}
}

func TestReviewValidationFailure(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	campground := app.createCampground(t, alice, "Strict")
	path := "/campgrounds/" + campground.ID

	c := app.newClient(t)
	c.login("alice")
	resp := c.do(http.MethodPost, path+"/reviews", url.Values{"review[body]": {"meh"}, "review[rating]": {"9"}})
	c.redirect(resp, path)

	v := c.view(path)
	if len(v.Error) != 1 {
		t.Fatalf("error = %v", v.Error)
	}
	if app.db.ReviewCount() != 0 {
		t.Fatal("invalid review stored")
	}
}

func TestGetReviewNotFound(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	campground := app.createCampground(t, alice, "Quiet")

	resp := app.newClient(t).do(http.MethodGet, "/campgrounds/"+campground.ID+"/reviews/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestDeleteMissingReviewReturnsToCampground(t *testing.T) {
	app := newTestApp(t)
	alice := app.register(t, "alice")
	campground := app.createCampground(t, alice, "Quiet")
	path := "/campgrounds/" + campground.ID

	c := app.newClient(t)
	c.login("alice")
	resp := c.do(http.MethodPost, path+"/reviews/"+uuid.NewString()+"?_method=DELETE", url.Values{})
	c.redirect(resp, path)

	v := c.view(path)
	if len(v.Error) != 1 || v.Error[0] != msgReviewNotFound {
		t.Fatalf("error = %v", v.Error)
	}
}

func TestMethodOverride(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		header string
		want   string
	}{
		{name: "query delete", method: http.MethodPost, target: "/x?_method=DELETE", want: http.MethodDelete},
		{name: "query lowercase put", method: http.MethodPost, target: "/x?_method=put", want: http.MethodPut},
		{name: "header", method: http.MethodPost, target: "/x", header: "PATCH", want: http.MethodPatch},
		{name: "unsupported", method: http.MethodPost, target: "/x?_method=TRACE", want: http.MethodPost},
		{name: "get is never overridden", method: http.MethodGet, target: "/x?_method=DELETE", want: http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			handler := MethodOverride(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.Method
			}))
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-HTTP-Method-Override", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Fatalf("method = %s; want %s", got, tt.want)
			}
		})
	}
}

func TestFormValueFallsBackToBareField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("title=Bare&campground%5Bprice%5D=3"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := parseForm(req); err != nil {
		t.Fatalf("parseForm: %v", err)
	}
	if got := formValue(req, formGroupCampground, "title"); got != "Bare" {
		t.Fatalf("title = %q", got)
	}
	if got := formValue(req, formGroupCampground, "price"); got != "3" {
		t.Fatalf("price = %q", got)
	}
}
