package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
	"gluco_watch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseUser     string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseUser, m.parseErr
}

type mockMonitoring struct {
	mu     sync.Mutex
	doc    jsonval.Value
	err    error
	status service.LoopStatus
	calls  int
}

func (m *mockMonitoring) Latest(ctx context.Context) (jsonval.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.doc, m.err
}

func (m *mockMonitoring) Status() service.LoopStatus {
	return m.status
}

func (m *mockMonitoring) set(doc jsonval.Value, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc, m.err = doc, err
}

type mockEventLog struct {
	resp     []models.TickEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.TickEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func readingDoc(glucose float64) jsonval.Value {
	return jsonval.ObjectValue(
		jsonval.M("identity", jsonval.StringValue("12345")),
		jsonval.M("main", jsonval.ObjectValue(
			jsonval.M("glucose", jsonval.FloatValue(glucose)),
			jsonval.M("iso_time", jsonval.StringValue("2024-01-02T03:04:05")),
		)),
	)
}
