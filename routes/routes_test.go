package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbank/cache"
	"qbank/handlers"
	"qbank/middleware"
	"qbank/models"
	"qbank/resolver"
	"qbank/services"
	"qbank/store"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	category := models.Category{Name: "Science"}
	require.NoError(t, st.CreateCategory(context.Background(), &category))
	q := models.Question{CategoryID: category.ID, Text: "Define osmosis", Slug: "define-osmosis"}
	require.NoError(t, st.Create(context.Background(), &q))

	svc := services.NewQuestionService(st, resolver.New(st), resolver.NewGuard(st, 10),
		cache.NewMemory[services.QuestionView](cache.MemoryOptions{}), nil)
	router := gin.New()
	SetupRoutes(router, handlers.NewQuestionHandler(svc, nil), nil)
	return router
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestQuestionRouteCarriesMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/science/questions/define-osmosis", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
