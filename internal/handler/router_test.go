package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"biliticket/connhub/internal/config"
	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/internal/repository"
	"biliticket/connhub/internal/service"
	"biliticket/connhub/pkg/crypto"
	jwtpkg "biliticket/connhub/pkg/jwt"
)

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	jwt    *jwtpkg.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, repository.EnsureSchema(context.Background(), db, repository.DefaultSchema()))

	reg, err := provider.NewRegistry(
		provider.NewOAuth2Factory("github", "github.v3"),
		provider.NewOAuth2Factory("google", "google.people"),
	)
	require.NoError(t, err)
	enc, err := crypto.NewAESGCMEncryptor(bytes.Repeat([]byte{7}, crypto.KeySize))
	require.NoError(t, err)

	dir, err := repository.NewUsersConnectionRepository(reg, db, repository.DefaultSchema(), enc,
		repository.WithConnectionSignUp(service.NewSignUpService(repository.NewUserRepository(db), nil)))
	require.NoError(t, err)

	svc := service.NewConnectionService(dir, reg)
	cfg := &config.Config{Admin: config.AdminConfig{UserIDs: []string{"root"}}}
	m, err := jwtpkg.NewManager("test-key", "connhub", time.Minute)
	require.NoError(t, err)

	return &testServer{
		t:      t,
		router: SetupRouter(cfg, zap.NewNop(), m, NewConnectionHandler(svc), NewAdminHandler(svc)),
		jwt:    m,
	}
}

func (s *testServer) call(method, path, userID string, body interface{}) (int, apiEnvelope) {
	s.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := s.jwt.GenerateAccessToken(userID)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func githubRequest(id string) ConnectionRequest {
	return ConnectionRequest{
		ProviderID:     "github",
		ProviderUserID: id,
		ConnectionFields: ConnectionFields{
			DisplayName: "octo " + id,
			AccessToken: "gho_" + id,
			ExpireTime:  1_900_000_000_000,
		},
	}
}

func TestConnectionAPI_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	code, env := s.call(http.MethodPost, "/api/v1/connections", "u1", githubRequest("1"))
	require.Equal(t, http.StatusCreated, code, env.Message)
	created := decode[ConnectionResponse](t, env.Data)
	assert.Equal(t, 1, created.Rank)
	assert.True(t, created.HasAccessToken)
	assert.False(t, created.HasRefreshToken)
	assert.EqualValues(t, 1_900_000_000_000, created.ExpireTime)
	assert.NotContains(t, string(env.Data), "gho_1")

	code, _ = s.call(http.MethodPost, "/api/v1/connections", "u1", githubRequest("1"))
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.call(http.MethodPost, "/api/v1/connections", "u1", githubRequest("2"))
	require.Equal(t, http.StatusCreated, code)

	code, env = s.call(http.MethodGet, "/api/v1/connections", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	all := decode[map[string][]ConnectionResponse](t, env.Data)
	assert.Len(t, all["github"], 2)
	assert.Contains(t, all, "google")
	assert.Empty(t, all["google"])

	code, env = s.call(http.MethodGet, "/api/v1/primary-connections/github", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1", decode[ConnectionResponse](t, env.Data).ProviderUserID)

	code, env = s.call(http.MethodPut, "/api/v1/connections/github/2", "u1", ConnectionFields{DisplayName: "renamed"})
	require.Equal(t, http.StatusOK, code)
	updated := decode[ConnectionResponse](t, env.Data)
	assert.Equal(t, "renamed", updated.DisplayName)
	assert.Equal(t, 2, updated.Rank)
	assert.False(t, updated.HasAccessToken)

	code, _ = s.call(http.MethodDelete, "/api/v1/connections/github/1", "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.call(http.MethodGet, "/api/v1/connections/github/1", "u1", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(http.MethodDelete, "/api/v1/connections/github", "u1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = s.call(http.MethodGet, "/api/v1/connections/github", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]ConnectionResponse](t, env.Data))
}

func TestConnectionAPI_Errors(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.call(http.MethodGet, "/api/v1/connections", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.call(http.MethodGet, "/api/v1/primary-connections/github", "u1", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(http.MethodGet, "/api/v1/primary-connections/myspace", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPost, "/api/v1/connections", "u1", map[string]string{"provider_id": "github"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPut, "/api/v1/connections/github/ghost", "u1", ConnectionFields{})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(http.MethodPost, "/api/v1/connections/lookup", "u1", LookupRequest{Accounts: map[string][]string{}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConnectionAPI_Lookup(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.call(http.MethodPost, "/api/v1/connections", "u1", githubRequest("b"))
	require.Equal(t, http.StatusCreated, code)

	code, env := s.call(http.MethodPost, "/api/v1/connections/lookup", "u1",
		LookupRequest{Accounts: map[string][]string{"github": {"a", "b", "c"}}})
	require.Equal(t, http.StatusOK, code, env.Message)

	found := decode[map[string][]*ConnectionResponse](t, env.Data)
	require.Len(t, found["github"], 3)
	assert.Nil(t, found["github"][0])
	require.NotNil(t, found["github"][1])
	assert.Equal(t, "b", found["github"][1].ProviderUserID)
	assert.Nil(t, found["github"][2])
}

func TestAdminAPI(t *testing.T) {
	s := newTestServer(t)
	for _, uid := range []string{"u2", "u1"} {
		code, _ := s.call(http.MethodPost, "/api/v1/connections", uid, githubRequest("shared"))
		require.Equal(t, http.StatusCreated, code)
	}

	code, _ := s.call(http.MethodPost, "/api/v1/admin/connections/owners", "u1",
		OwnersRequest{ProviderID: "github", ProviderUserIDs: []string{"shared"}})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.call(http.MethodPost, "/api/v1/admin/connections/owners", "root",
		OwnersRequest{ProviderID: "github", ProviderUserIDs: []string{"shared", "nobody"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"u1", "u2"}, decode[UserIDsResponse](t, env.Data).UserIDs)

	code, env = s.call(http.MethodPost, "/api/v1/admin/connections/resolve", "root", githubRequest("newcomer"))
	require.Equal(t, http.StatusOK, code, env.Message)
	signedUp := decode[UserIDsResponse](t, env.Data).UserIDs
	require.Len(t, signedUp, 1)
	assert.Len(t, signedUp[0], 36)

	code, env = s.call(http.MethodPost, "/api/v1/admin/connections/resolve/goth", "root", map[string]interface{}{
		"Provider": "github",
		"UserID":   "newcomer",
		"NickName": "newbie",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, signedUp, decode[UserIDsResponse](t, env.Data).UserIDs)

	code, _ = s.call(http.MethodPost, "/api/v1/admin/connections/resolve/goth", "root", map[string]string{"Provider": "github"})
	assert.Equal(t, http.StatusBadRequest, code)
}
