package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NekoNeko6996/cusc-edx-api/internal/config"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/coursekey"
	"github.com/NekoNeko6996/cusc-edx-api/internal/domain/model"
	"github.com/NekoNeko6996/cusc-edx-api/internal/handler"
	"github.com/NekoNeko6996/cusc-edx-api/internal/middleware"
	"github.com/NekoNeko6996/cusc-edx-api/internal/repository/repotest"
	"github.com/NekoNeko6996/cusc-edx-api/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	prefix      = "/api/cusc-edx-api"
	tokenHeader = "X-CUSC-PAYMENT-TOKEN"
	testToken   = "s3cret"
	courseID    = "course-v1:CUSC+GO101+2025"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type testApp struct {
	e     *echo.Echo
	store *repotest.Store
}

func newTestApp(t *testing.T, token string) *testApp {
	t.Helper()

	store := repotest.NewStore()
	store.AddUser(model.User{ID: 1, Username: "alice", Email: "Alice@Example.com", IsActive: true})
	store.AddUser(model.User{ID: 2, Username: "bob", Email: "bob@example.com", IsActive: false})

	cfg := config.Config{APIPrefix: prefix, PaymentAPIToken: token, PaymentTokenHeader: tokenHeader}
	parser := coursekey.Parser{}

	orderUC := usecase.NewOrderUsecase(store.Orders(), store.Users())
	statusUC := usecase.NewOrderStatusUsecase(store.Orders(), store.Enrollments(), parser, fixedClock{}, "verified")

	e := echo.New()
	g := e.Group(prefix)
	auth := middleware.SharedSecret(cfg)
	handler.NewPingHandler().RegisterRoutes(g)
	handler.NewOrderHandler(orderUC, statusUC).RegisterRoutes(g, auth)
	handler.NewUserHandler(usecase.NewUserUsecase(store.Users())).RegisterRoutes(g, auth)
	handler.NewCoursePricingHandler(usecase.NewCoursePricingUsecase(store.CourseModes(), parser, fixedClock{})).RegisterRoutes(g, auth)

	return &testApp{e: e, store: store}
}

func (a *testApp) do(method, path, body string, token string) *httptest.ResponseRecorder {
	contentType := ""
	if body != "" {
		contentType = echo.MIMEApplicationJSON
	}
	return a.doWithContentType(method, path, body, contentType, token)
}

// doWithContentType sends body as-is; an empty contentType sends no header.
func (a *testApp) doWithContentType(method, path, body, contentType, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, prefix+path, r)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) mustCreate(t *testing.T, body string) usecase.OrderOutput {
	t.Helper()
	rec := a.do(http.MethodPost, "/orders/create/", body, testToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[usecase.OrderOutput](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
