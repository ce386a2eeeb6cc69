package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/routes"
	"github.com/inkpress/inkpress/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "unit-test-secret")
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// envelope mirrors the uniform JSON response body.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Post{},
		&models.Comment{},
		&models.Category{},
	))

	r := gin.New()
	routes.RegisterRoutes(r, db)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

type session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

func registerUser(t *testing.T, r *gin.Engine, email, name string) session {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/users/register", gin.H{
		"email":    email,
		"password": "password123",
		"name":     name,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, env, &data)
	require.NotEmpty(t, data.User.ID)
	require.NotEmpty(t, data.AccessToken)
	require.NotEmpty(t, data.RefreshToken)
	return session{UserID: data.User.ID, AccessToken: data.AccessToken, RefreshToken: data.RefreshToken}
}

func createPost(t *testing.T, r *gin.Engine, sess session, title, content string, categoryIDs ...string) string {
	t.Helper()
	body := gin.H{"title": title, "content": content}
	if len(categoryIDs) > 0 {
		body["category_ids"] = categoryIDs
	}
	w, env := doJSON(t, r, http.MethodPost, "/api/posts", body, sess.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	decodeData(t, env, &data)
	require.NotEmpty(t, data.Post.ID)
	return data.Post.ID
}

func createCategory(t *testing.T, r *gin.Engine, sess session, name, slug string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/categories", gin.H{"name": name, "slug": slug}, sess.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Category struct {
			ID string `json:"id"`
		} `json:"category"`
	}
	decodeData(t, env, &data)
	return data.Category.ID
}
