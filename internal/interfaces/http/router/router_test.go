package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func reply(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	billing := NewDomainGroup("billing", "/billing")
	billing.GET("/documents", reply("list")).
		POST("/documents", reply("create")).
		PUT("/documents/:id", reply("update")).
		PATCH("/documents/:id/notes", reply("notes")).
		DELETE("/documents/:id", reply("delete"))

	NewRouter(engine).Register(billing).Setup()

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/billing/documents", "list"},
		{http.MethodPost, "/api/v1/billing/documents", "create"},
		{http.MethodPut, "/api/v1/billing/documents/42", "update"},
		{http.MethodPatch, "/api/v1/billing/documents/42/notes", "notes"},
		{http.MethodDelete, "/api/v1/billing/documents/42", "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/billing/documents").Code)
}

func TestStaticAndParamSegments(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("billing", "/billing").
		GET("/documents/stats/count", reply("count")).
		GET("/documents/number/:number/revisions", reply("revisions")).
		GET("/documents/:id", reply("one")).
		GET("/documents/:id/invoices", reply("invoices"))
	NewRouter(engine).Register(g).Setup()

	assert.Equal(t, "count", serve(engine, http.MethodGet, "/api/v1/billing/documents/stats/count").Body.String())
	assert.Equal(t, "revisions", serve(engine, http.MethodGet, "/api/v1/billing/documents/number/Q-0001/revisions").Body.String())
	assert.Equal(t, "one", serve(engine, http.MethodGet, "/api/v1/billing/documents/abc").Body.String())
	assert.Equal(t, "invoices", serve(engine, http.MethodGet, "/api/v1/billing/documents/abc/invoices").Body.String())
}

func TestMiddlewareScope(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", reply("ok"))

	tag := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Writer.Header().Add("X-Through", name)
			c.Next()
		}
	}

	g := NewDomainGroup("billing", "/billing").Use(tag("billing"))
	g.GET("/documents", reply("list"))
	NewRouter(engine, WithMiddleware(tag("api"))).Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/billing/documents")
	assert.Equal(t, []string{"api", "billing"}, w.Header().Values("X-Through"))

	w = serve(engine, http.MethodGet, "/health")
	assert.Empty(t, w.Header().Values("X-Through"))
}

func TestDomainGroupSubgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("billing", "/billing")
	g.Group("quotes", "/quotes").GET("", reply("quotes"))
	g.Group("invoices", "/invoices").GET("/:id", reply("invoice"))
	NewRouter(engine).Register(g).Setup()

	assert.Equal(t, "quotes", serve(engine, http.MethodGet, "/api/v1/billing/quotes").Body.String())
	assert.Equal(t, "invoice", serve(engine, http.MethodGet, "/api/v1/billing/invoices/7").Body.String())

	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/billing/quotes"},
		{Method: http.MethodGet, Path: "/billing/invoices/:id"},
	}, g.Routes())
	assert.Equal(t, "billing", g.Name())
	assert.Equal(t, "/billing", g.Prefix())
}
