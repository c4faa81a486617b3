package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cohort-admin-api/internal/models"
	"github.com/noah-isme/cohort-admin-api/internal/service"
	"github.com/noah-isme/cohort-admin-api/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       config.EnvProduction,
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: "secret"},
		Cohorts:   config.CohortsConfig{PageSize: 25, MaxPageSize: 100, ConfirmSecret: "confirm", ConfirmTTL: time.Minute},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func bearer(t *testing.T, role models.UserRole) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: 4,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return "Bearer " + raw
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	cfg := testConfig()
	svc := NewServices(cfg, sqlxDB, nil, service.NewMetricsService(), nil)
	return NewRouter(cfg, svc, sqlxDB, nil), mock
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cohorts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterRejectsStudents(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cohorts", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleStudent))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterListsCohortsForSiteAdmin(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery("FROM contexts hidden").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cohorts c`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY c.name ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "context_id", "name", "id_number", "description", "visible", "component", "context_level", "category_name"}).
			AddRow(int64(1), int64(1), "Year 9", "", "", true, "", models.ContextLevelSystem, ""))
	mock.ExpectQuery("FROM cohort_members cm WHERE cm.cohort_id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`COUNT\(DISTINCT e.course_id\)`).
		WithArgs("cohort", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cohorts", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleSiteAdmin))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"member_count":4`)
	assert.Contains(t, w.Body.String(), `"course_count":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
