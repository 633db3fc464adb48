package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	if s.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newProtectedRouter(v *stubValidator, roles ...models.TeacherRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", JWT(v))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentTeacher(c).TeacherID})
	})
	return router
}

func TestJWTMissingHeader(t *testing.T) {
	router := newProtectedRouter(&stubValidator{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no token provided", body["message"])
}

func TestJWTMalformedHeader(t *testing.T) {
	router := newProtectedRouter(&stubValidator{claims: &models.JWTClaims{TeacherID: "t1"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTValidToken(t *testing.T) {
	v := &stubValidator{claims: &models.JWTClaims{TeacherID: "t1", Role: models.RoleTeacher}}
	router := newProtectedRouter(v)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer abc.def")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc.def", v.token)
	assert.JSONEq(t, `{"id":"t1"}`, rec.Body.String())
}

func TestRequireRoles(t *testing.T) {
	teacher := newProtectedRouter(&stubValidator{claims: &models.JWTClaims{TeacherID: "t1", Role: models.RoleTeacher}}, models.RoleAdmin)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	teacher.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := newProtectedRouter(&stubValidator{claims: &models.JWTClaims{TeacherID: "a1", Role: models.RoleAdmin}}, models.RoleAdmin)
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponseMetaCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, true, meta["cache_hit"])
}

func TestMetricsSkipsHealthAndScrape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/students/s1", "/students/s2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)
}
