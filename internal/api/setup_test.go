package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/almuerzo-cl/almuerzo/backend/internal/cache"
	"github.com/almuerzo-cl/almuerzo/backend/internal/models"
	"github.com/almuerzo-cl/almuerzo/backend/internal/scheduler"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	s3     *fakeS3
}

// newTestServer wires the real services over an in-memory database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test swap dependencies before the router is built.
func newTestServerWith(t *testing.T, override func(*Deps)) *testServer {
	t.Helper()
	db := testhelpers.SetupTestDB(t)

	catalog := service.NewCatalogService(db, service.HashEmbedder{}, testhelpers.Origin, 4, time.UTC, nil)
	notifier := service.NewNotificationService(db, nil, nil)
	msgs := service.NewMessages(time.UTC, "https://almuerzo.cl")
	sched := scheduler.New(scheduler.NewMemoryQueue(), time.Second, nil)
	store := &fakeS3{}
	images := service.NewImageService(store, "almuerzo-test", nil)
	limits := cache.NewMemoryStore()
	booking := service.NewBookingService(db, catalog, notifier, msgs, sched, nil)
	service.RegisterJobHandlers(sched, booking)

	deps := &Deps{
		DB:            db,
		Auth:          service.NewAuthService(db, testhelpers.TestJWTSecret),
		Catalog:       catalog,
		Booking:       booking,
		Orders:        service.NewOrderService(db, notifier, msgs, nil),
		Suggestions:   service.NewSuggestionService(db, catalog, service.HashEmbedder{}, nil, limits, 4, nil),
		Notifications: notifier,
		Contacts:      service.NewContactService(db),
		Community:     service.NewCommunityService(db, images, nil, nil),
		Images:        images,
		Dashboard:     service.NewDashboardService(db, time.UTC, nil),
		Limits:        limits,
		Version:       "test",
	}
	if override != nil {
		override(deps)
	}
	return &testServer{router: NewRouter(deps), db: db, s3: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) user(t *testing.T, role string) (*models.User, string) {
	t.Helper()
	u := testhelpers.CreateUser(t, s.db, role)
	return u, testhelpers.Token(t, u)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
