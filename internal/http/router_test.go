package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-graceful-response/internal/config"
	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:routerdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Response: config.ResponseConfig{
			Style:              domain.StyleFlat,
			SuccessCode:        "OK",
			SuccessMessage:     "ok",
			DefaultErrorStatus: http.StatusInternalServerError,
			FallbackCode:       "INTERNAL",
			FallbackMessage:    "Unexpected error",
			ExcludeReturnTypes: []string{"[]uint8"},
		},
	}
}

// newRouter builds the full stack over a fresh database. stop flushes the
// incident writer and is also run on cleanup.
func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	ctl, stop, err := BuildPipeline(cfg.Response, config.DefaultMappingSet(), db)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	t.Cleanup(stop)
	r := gin.New()
	if err := RegisterRoutes(r, db, ctl, cfg); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	return r, db, stop
}

func serve(r http.Handler, method, path string, body io.Reader, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return m
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	// /health works and is enveloped
	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	m := envelope(t, w)
	if m["code"] != "OK" || m["data"].(map[string]any)["status"] != "ok" {
		t.Fatalf("health body = %v", m)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = serve(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404 envelope
	w = serve(r, http.MethodGet, "/nope", nil)
	if m := envelope(t, w); w.Code != http.StatusNotFound || m["code"] != "NOT_FOUND" {
		t.Fatalf("GET /nope = %d %v", w.Code, m)
	}

	// NoMethod → 405 envelope (POST /health)
	w = serve(r, http.MethodPost, "/health", nil)
	if m := envelope(t, w); w.Code != http.StatusMethodNotAllowed || m["code"] != "METHOD_NOT_ALLOWED" {
		t.Fatalf("POST /health = %d %v", w.Code, m)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, "Origin", "http://example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_NestedStyle(t *testing.T) {
	cfg := testConfig()
	cfg.Response.Style = domain.StyleNested
	r, _, _ := newRouter(t, cfg)

	m := envelope(t, serve(r, http.MethodGet, "/nope", nil))
	st, ok := m["status"].(map[string]any)
	if !ok || st["code"] != "NOT_FOUND" {
		t.Fatalf("nested body = %v", m)
	}
	if _, flat := m["code"]; flat {
		t.Fatalf("nested body must not carry a top-level code: %v", m)
	}
}

func TestRegisterRoutes_ItemsThroughFullStack(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/items", bytes.NewBufferString(`{"name":"widget"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodPost, "/api/v1/items", bytes.NewBufferString(`{"name":"widget"}`))
	if m := envelope(t, w); w.Code != http.StatusConflict || m["code"] != "DUPLICATE" {
		t.Fatalf("duplicate = %d %v", w.Code, m)
	}

	// Raw export bypasses the envelope.
	w = serve(r, http.MethodGet, "/api/v1/items/export", nil)
	if w.Code != http.StatusOK || !bytes.HasSuffix(w.Body.Bytes(), []byte("\twidget\n")) {
		t.Fatalf("export = %d %q", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_ExcludedURLWritesRaw(t *testing.T) {
	cfg := testConfig()
	cfg.Response.ExcludeURLs = []string{"/health"}
	r, _, _ := newRouter(t, cfg)

	m := envelope(t, serve(r, http.MethodGet, "/health", nil))
	if m["status"] != "ok" || m["code"] != nil {
		t.Fatalf("excluded body should be raw, got %v", m)
	}
}

func TestRegisterRoutes_RecordsIncidents(t *testing.T) {
	cfg := testConfig()
	cfg.Response.RecordIncidents = true
	cfg.Response.RecordClientIncidents = true
	r, db, stop := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/missing", nil, "X-Request-ID", "rid-1")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /missing = %d", w.Code)
	}
	stop()

	items, err := repo.ListIncidentsPage(context.Background(), db, "NOT_FOUND", 0, 10)
	if err != nil {
		t.Fatalf("ListIncidentsPage: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("incidents = %d, want 1", len(items))
	}
	in := items[0]
	if in.RequestID != "rid-1" || in.Path != "/missing" || in.Method != http.MethodGet || in.Category != "not_found" {
		t.Fatalf("incident = %+v", in)
	}

	// Served back by the read API.
	w = serve(r, http.MethodGet, "/api/v1/incidents?code=NOT_FOUND", nil)
	data := envelope(t, w)["data"].(map[string]any)
	if w.Code != http.StatusOK || len(data["incidents"].([]any)) != 1 {
		t.Fatalf("incidents endpoint = %d %v", w.Code, data)
	}
}

func TestRegisterRoutes_IncidentsSkipClientErrorsByDefault(t *testing.T) {
	cfg := testConfig()
	cfg.Response.RecordIncidents = true
	r, db, stop := newRouter(t, cfg)
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(fault.New(fault.CategoryInternal, "disk full")) })

	for _, p := range []string{"/missing", "/other", "/boom"} {
		serve(r, http.MethodGet, p, nil)
	}
	if w := serve(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health = %d", w.Code)
	}
	stop()

	items, err := repo.ListIncidentsPage(context.Background(), db, "", 0, 10)
	if err != nil {
		t.Fatalf("ListIncidentsPage: %v", err)
	}
	if len(items) != 1 || items[0].Path != "/boom" || items[0].Category != "internal" {
		t.Fatalf("incidents = %+v", items)
	}
}

func TestRegisterRoutes_IgnoredCategoryIsBare500(t *testing.T) {
	cfg := testConfig()
	cfg.Response.IgnoreErrorCategories = []string{"not_found"}
	r, _, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusInternalServerError || w.Body.Len() != 0 {
		t.Fatalf("ignored error = %d %q", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r, _, _ := newRouter(t, cfg)

	if w := serve(r, http.MethodGet, "/health", nil, "X-Client-ID", "c1"); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/health", nil, "X-Client-ID", "c1")
	if m := envelope(t, w); w.Code != http.StatusTooManyRequests || m["code"] != "RATE_LIMITED" {
		t.Fatalf("second request = %d %v", w.Code, m)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRegisterRoutes_BadExcludePattern(t *testing.T) {
	cfg := testConfig()
	cfg.Response.ExcludeURLs = []string{"/a/[b"}
	gin.SetMode(gin.TestMode)
	ctl, stop, err := BuildPipeline(cfg.Response, config.DefaultMappingSet(), nil)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	defer stop()
	if err := RegisterRoutes(gin.New(), newTestDB(t), ctl, cfg); err == nil {
		t.Fatalf("expected error for malformed pattern")
	}
}

func TestBuildPipeline_RejectsCycles(t *testing.T) {
	set := config.DefaultMappingSet()
	set.Parents["client"] = "bad_request"
	if _, _, err := BuildPipeline(testConfig().Response, set, nil); err == nil {
		t.Fatalf("expected error for cyclic hierarchy")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Smoke test that a request traverses request id + ratelimit + otel.
func TestPipeline_Smoke(t *testing.T) {
	r, _, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	w = serve(r, http.MethodGet, "/health", nil, "X-Request-ID", "fixed")
	if rid := w.Header().Get("X-Request-ID"); rid != "fixed" {
		t.Fatalf("X-Request-ID not propagated, got %q", rid)
	}
}

func Test_itemRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := itemRepoShim{}
	ctx := context.Background()

	it, err := shim.CreateItem(ctx, db, "a", "first")
	if err != nil || it.ID == "" {
		t.Fatalf("CreateItem: %v %+v", err, it)
	}
	if got, err := shim.GetItem(ctx, db, it.ID); err != nil || got.Name != "a" {
		t.Fatalf("GetItem: %v %+v", err, got)
	}
	if err := shim.UpdateItemDescription(ctx, db, it.ID, "second"); err != nil {
		t.Fatalf("UpdateItemDescription: %v", err)
	}
	if n, err := shim.CountItems(ctx, db); err != nil || n != 1 {
		t.Fatalf("CountItems: %v %d", err, n)
	}
	if page, err := shim.ListItemsPage(ctx, db, 0, 10); err != nil || len(page) != 1 || page[0].Description != "second" {
		t.Fatalf("ListItemsPage: %v %+v", err, page)
	}
	if n, ts, err := shim.ItemsStats(ctx, db); err != nil || n != 1 || ts == nil {
		t.Fatalf("ItemsStats: %v %d %v", err, n, ts)
	}
	if err := shim.DeleteItem(ctx, db, it.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
}

func Test_incidentRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := incidentRepoShim{}
	ctx := context.Background()

	if err := shim.CreateIncident(ctx, db, &domain.Incident{Code: "CONFLICT", Message: "m"}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	if n, err := shim.CountIncidents(ctx, db, "CONFLICT"); err != nil || n != 1 {
		t.Fatalf("CountIncidents: %v %d", err, n)
	}
	if page, err := shim.ListIncidentsPage(ctx, db, "", 0, 10); err != nil || len(page) != 1 {
		t.Fatalf("ListIncidentsPage: %v %d", err, len(page))
	}
	counts, err := shim.IncidentCountsByCode(ctx, db, nil)
	if err != nil || len(counts) != 1 || counts[0].Count != 1 {
		t.Fatalf("IncidentCountsByCode: %v %+v", err, counts)
	}
}

func TestBuildPipeline_ShippedMappingsFile(t *testing.T) {
	set, err := config.LoadMappings("../../configs/mappings.yaml")
	if err != nil {
		t.Fatalf("LoadMappings: %v", err)
	}
	cfg := testConfig()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	ctl, stop, err := BuildPipeline(cfg.Response, set, db)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	defer stop()
	r := gin.New()
	if err := RegisterRoutes(r, db, ctl, cfg); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}

	path := "/api/v1/items/" + uuid.NewString()
	w := serve(r, http.MethodGet, path, nil)
	if m := envelope(t, w); w.Code != http.StatusNotFound || m["message"] != "item not found" {
		t.Fatalf("GET %s = %d %v", path, w.Code, m)
	}
	w = serve(r, http.MethodGet, path, nil, "Accept-Language", "de")
	if m := envelope(t, w); m["message"] != "item nicht gefunden" {
		t.Fatalf("translated message = %v", m["message"])
	}
}
