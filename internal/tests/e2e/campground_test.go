//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/yelpcamp/apiserver/config"
	"github.com/yelpcamp/apiserver/internal/db"
	"github.com/yelpcamp/apiserver/internal/server"
)

const (
	serverPort = 18080
	password   = "testpass123!"
)

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}
	setTestEnv()

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	serverCtx, stopServer := context.WithCancel(context.Background())
	done, err := startServer(serverCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		stopServer()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		stopServer()
		<-done
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	stopServer()
	<-done
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestCampgroundLifecycle(t *testing.T) {
	suffix := time.Now().UnixNano()
	alice := newClient(t)
	bob := newClient(t)
	alice.register(fmt.Sprintf("alice_%d", suffix))
	bob.register(fmt.Sprintf("bob_%d", suffix))

	resp := alice.postMultipart("/campgrounds", map[string]string{
		"campground[title]":       "Smith Rock",
		"campground[description]": "Climbing and river views.",
		"campground[price]":       "25",
		"campground[location]":    "Terrebonne, Oregon",
		"campground[longitude]":   "-121.14",
		"campground[latitude]":    "44.37",
	}, "image", "rock.png", pngBytes(t))
	location := expectRedirectPrefix(t, resp, "/campgrounds/")
	campgroundID := strings.TrimPrefix(location, "/campgrounds/")

	detail := alice.getCampground(location)
	if detail.Title != "Smith Rock" {
		t.Fatalf("unexpected title: %q", detail.Title)
	}
	if len(detail.Images) != 1 || !strings.HasPrefix(detail.Images[0].URL, "http://localhost:9000/yelpcamp/YelpCamp/") {
		t.Fatalf("unexpected images: %+v", detail.Images)
	}

	resp = bob.postForm(location+"/reviews", url.Values{
		"review[title]":  {"Great"},
		"review[body]":   {"Worth the drive"},
		"review[rating]": {"5"},
	})
	expectRedirect(t, resp, location)

	detail = bob.getCampground(location)
	if len(detail.Reviews) != 1 {
		t.Fatalf("expected one review, got %d", len(detail.Reviews))
	}
	reviewID := detail.Reviews[0].ID

	resp = bob.postForm(location+"?_method=DELETE", url.Values{})
	expectRedirect(t, resp, location)
	if got := bob.getCampground(location); got.ID != campgroundID {
		t.Fatalf("campground missing after rejected delete")
	}

	resp = alice.postForm(location+"?_method=DELETE", url.Values{})
	expectRedirect(t, resp, "/campgrounds")

	resp = alice.get(location)
	expectRedirect(t, resp, "/campgrounds")

	if n := countRows(t, "SELECT COUNT(*) FROM reviews WHERE id = $1", reviewID); n != 0 {
		t.Fatalf("review survived campground deletion")
	}
	if n := countRows(t, "SELECT COUNT(*) FROM sessions WHERE expires_at > now()"); n == 0 {
		t.Fatalf("expected sessions to be persisted")
	}
}

type campgroundDetail struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Images []struct {
		URL       string `json:"url"`
		Thumbnail string `json:"thumbnail"`
	} `json:"images"`
	Reviews []struct {
		ID string `json:"id"`
	} `json:"reviews"`
}

type client struct {
	t    *testing.T
	http *http.Client
}

func newClient(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &client{t: t, http: &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (c *client) register(username string) {
	c.t.Helper()
	resp := c.postForm("/register", url.Values{"username": {username}, "password": {password}})
	expectRedirect(c.t, resp, "/campgrounds")
}

func (c *client) send(req *http.Request) *http.Response {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

func (c *client) get(path string) *http.Response {
	req, _ := http.NewRequest(http.MethodGet, baseURL+path, nil)
	return c.send(req)
}

func (c *client) postForm(path string, form url.Values) *http.Response {
	req, _ := http.NewRequest(http.MethodPost, baseURL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req)
}

func (c *client) postMultipart(path string, fields map[string]string, fileField, fileName string, data []byte) *http.Response {
	c.t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			c.t.Fatalf("write field: %v", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		c.t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		c.t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		c.t.Fatalf("close writer: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, baseURL+path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req)
}

func (c *client) getCampground(path string) campgroundDetail {
	c.t.Helper()
	resp := c.get(path)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	var view struct {
		Campground campgroundDetail `json:"campground"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		c.t.Fatalf("decode campground: %v", err)
	}
	return view.Campground
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != want {
		t.Fatalf("expected redirect to %q, got %q", want, got)
	}
}

func expectRedirectPrefix(t *testing.T, resp *http.Response, prefix string) string {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, prefix) {
		t.Fatalf("expected redirect under %q, got %q", prefix, location)
	}
	return location
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	conn, err := sql.Open("postgres", db.PostgresURL(config.LoadConfig()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func setTestEnv() {
	_ = os.Setenv("SESSION_SECRET", "test-secret")
	_ = os.Setenv("SESSION_STORE", config.SessionStorePostgres)
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "yelpcamp")
	_ = os.Setenv("DB_PASSWORD", "yelpcamp")
	_ = os.Setenv("DB_NAME", "yelpcamp")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", config.StorageMinio)
	_ = os.Setenv("STORAGE_PUBLIC_BASE_URL", "http://localhost:9000/yelpcamp")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "yelpcamp")
}

func waitForPostgres(ctx context.Context) error {
	conn, err := sql.Open("postgres", db.PostgresURL(config.LoadConfig()))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.PostgresURL(config.LoadConfig()))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer(ctx context.Context) (<-chan error, error) {
	srv, err := server.New(ctx, config.LoadConfig(), nil)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()
	return done, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
