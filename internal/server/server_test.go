package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/almuerzo-cl/almuerzo/backend/config"
	"github.com/almuerzo-cl/almuerzo/backend/internal/service"
	"github.com/almuerzo-cl/almuerzo/backend/internal/testhelpers"
)

type nopS3 struct{}

func (nopS3) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                config.Test,
		ServerHost:         "127.0.0.1",
		ServerPort:         "0",
		PublicBaseURL:      "https://almuerzo.cl",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		JWTSecret:          testhelpers.TestJWTSecret,
		LLMProvider:        "none",
		DistanceLimitKm:    4,
		DefaultLat:         testhelpers.Origin.Lat,
		DefaultLon:         testhelpers.Origin.Lon,
		Timezone:           "America/Santiago",
		SchedulerTick:      10 * time.Millisecond,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(context.Background(), testConfig(), zap.NewNop(), Options{
		DB:     testhelpers.SetupTestDB(t),
		Images: nopS3{},
	})
	require.NoError(t, err)
	return srv
}

func TestNew(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"dev"`)
	assert.Empty(t, srv.Addr())
}

func TestStartAndShutdown(t *testing.T) {
	srv := newTestServer(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	require.NoError(t, srv.Start())
	require.NotEmpty(t, srv.Addr())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Addr() + "/api/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestAIFromConfig(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY_FILE", "")

	cfg := testConfig()
	embedder, chat := AIFromConfig(context.Background(), cfg, zap.NewNop())
	assert.IsType(t, service.HashEmbedder{}, embedder)
	assert.Nil(t, chat)

	cfg.LLMProvider = "deepseek"
	_, chat = AIFromConfig(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, chat, "no key means no chat model")

	cfg.DeepSeekAPIKey = "sk-test"
	cfg.DeepSeekAPIURL = "http://127.0.0.1:1/v1/chat/completions"
	_, chat = AIFromConfig(context.Background(), cfg, zap.NewNop())
	assert.IsType(t, &service.ChatClient{}, chat)
}
