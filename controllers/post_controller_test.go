package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkpress/inkpress/models"
)

// seedPosts inserts posts directly with strictly increasing creation times
// so the newest-first ordering is deterministic.
func seedPosts(t *testing.T, db *gorm.DB, authorID string, n int) {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 1; i <= n; i++ {
		post := models.Post{
			Title:     fmt.Sprintf("post-%d", i),
			Content:   fmt.Sprintf("content of post %d", i),
			AuthorID:  authorID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&post).Error)
	}
}

func TestCreatePostRequiresAuth(t *testing.T) {
	r, _ := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{
		"title":   "Untitled",
		"content": "body",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostValidation(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{
		"title":   "   ",
		"content": "body",
	}, sess.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40021, env.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/posts", gin.H{
		"title": "Title",
	}, sess.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40020, env.Code)
}

func TestCreatePostUnknownCategory(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{
		"title":        "Title",
		"content":      "body",
		"category_ids": []string{"no-such-category"},
	}, sess.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40023, env.Code)
}

func TestCreatePostRepeatedCategoryID(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	techID := createCategory(t, r, sess, "Tech", "tech")

	w, env := doJSON(t, r, http.MethodPost, "/api/posts", gin.H{
		"title":        "Title",
		"content":      "body",
		"category_ids": []string{techID, techID},
	}, sess.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Post struct {
			Categories []struct {
				Slug string `json:"slug"`
			} `json:"categories"`
		} `json:"post"`
	}
	decodeData(t, env, &data)
	require.Len(t, data.Post.Categories, 1)
	assert.Equal(t, "tech", data.Post.Categories[0].Slug)
}

func TestGetPostRendersMarkdown(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	postID := createPost(t, r, sess, "Hello", "# Heading\n**bold** text <script>alert(1)</script>")

	w, env := doJSON(t, r, http.MethodGet, "/api/posts/"+postID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Post struct {
			Content     string `json:"content"`
			ContentHTML string `json:"content_html"`
			Author      struct {
				Name string `json:"name"`
			} `json:"author"`
			Comments []gin.H `json:"comments"`
		} `json:"post"`
	}
	decodeData(t, env, &data)

	// Raw markdown is stored untouched; only the rendered view is sanitized.
	assert.Contains(t, data.Post.Content, "# Heading")
	assert.Contains(t, data.Post.ContentHTML, "<h1")
	assert.Contains(t, data.Post.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, data.Post.ContentHTML, "<script>")
	assert.Equal(t, "Alice", data.Post.Author.Name)
	assert.Empty(t, data.Post.Comments)
}

func TestGetPostNotFound(t *testing.T) {
	r, _ := newTestServer(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/posts/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40402, env.Code)
}

func TestUpdatePostOwnership(t *testing.T) {
	r, _ := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com", "Alice")
	bob := registerUser(t, r, "bob@example.com", "Bob")
	postID := createPost(t, r, alice, "Original", "original body")

	wBob, envBob := doJSON(t, r, http.MethodPut, "/api/posts/"+postID, gin.H{
		"title":   "Hijacked",
		"content": "nope",
	}, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, wBob.Code)
	assert.Equal(t, 40301, envBob.Code)

	wAlice, envAlice := doJSON(t, r, http.MethodPut, "/api/posts/"+postID, gin.H{
		"title":   "Updated",
		"content": "updated body",
	}, alice.AccessToken)
	require.Equal(t, http.StatusOK, wAlice.Code)

	var data struct {
		Post struct {
			Title string `json:"title"`
		} `json:"post"`
	}
	decodeData(t, envAlice, &data)
	assert.Equal(t, "Updated", data.Post.Title)
}

func TestUpdatePostReplacesCategories(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	techID := createCategory(t, r, sess, "Tech", "tech")
	lifeID := createCategory(t, r, sess, "Life", "life")
	postID := createPost(t, r, sess, "Post", "body", techID)

	w, env := doJSON(t, r, http.MethodPut, "/api/posts/"+postID, gin.H{
		"title":        "Post",
		"content":      "body",
		"category_ids": []string{lifeID},
	}, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Post struct {
			Categories []struct {
				Slug string `json:"slug"`
			} `json:"categories"`
		} `json:"post"`
	}
	decodeData(t, env, &data)
	require.Len(t, data.Post.Categories, 1)
	assert.Equal(t, "life", data.Post.Categories[0].Slug)

	// Omitting category_ids leaves the set alone.
	w, env = doJSON(t, r, http.MethodPut, "/api/posts/"+postID, gin.H{
		"title":   "Post v2",
		"content": "body",
	}, sess.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &data)
	require.Len(t, data.Post.Categories, 1)
	assert.Equal(t, "life", data.Post.Categories[0].Slug)
}

func TestDeletePostOwnership(t *testing.T) {
	r, db := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com", "Alice")
	bob := registerUser(t, r, "bob@example.com", "Bob")
	postID := createPost(t, r, alice, "Post", "body")

	w, _ := doJSON(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", gin.H{
		"content": "a comment",
	}, bob.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code)

	wBob, _ := doJSON(t, r, http.MethodDelete, "/api/posts/"+postID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, wBob.Code)

	wAlice, _ := doJSON(t, r, http.MethodDelete, "/api/posts/"+postID, nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, wAlice.Code)

	var posts, comments int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Comment{}).Count(&comments)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
}

func TestListPostsPagination(t *testing.T) {
	r, db := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	seedPosts(t, db, sess.UserID, 10)

	w, env := doJSON(t, r, http.MethodGet, "/api/posts?page=2&limit=5", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	decodeData(t, env, &data)

	assert.Equal(t, 2, data.Pagination.Page)
	assert.Equal(t, 5, data.Pagination.Limit)
	assert.EqualValues(t, 10, data.Pagination.Total)
	assert.Equal(t, 2, data.Pagination.TotalPages)

	// Newest first: page 2 holds the five oldest posts.
	require.Len(t, data.Posts, 5)
	assert.Equal(t, "post-5", data.Posts[0].Title)
	assert.Equal(t, "post-1", data.Posts[4].Title)
}

func TestListPostsDefaults(t *testing.T) {
	r, db := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	seedPosts(t, db, sess.UserID, 12)

	w, env := doJSON(t, r, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posts []gin.H `json:"posts"`
		Pagination struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	decodeData(t, env, &data)
	assert.Len(t, data.Posts, 10)
	assert.Equal(t, 1, data.Pagination.Page)
	assert.Equal(t, 10, data.Pagination.Limit)
	assert.Equal(t, 2, data.Pagination.TotalPages)
}

func TestListPostsRejectsInvalidPagination(t *testing.T) {
	r, _ := newTestServer(t)

	for _, path := range []string{
		"/api/posts?page=0",
		"/api/posts?page=abc",
		"/api/posts?limit=0",
		"/api/posts?limit=101",
	} {
		w, env := doJSON(t, r, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, 40024, env.Code, path)
	}
}

func TestListPostsSearch(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	createPost(t, r, sess, "Gopher News", "all about go")
	createPost(t, r, sess, "Cooking", "pasta recipes")

	w, env := doJSON(t, r, http.MethodGet, "/api/posts?search=GOPHER", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decodeData(t, env, &data)
	require.Len(t, data.Posts, 1)
	assert.Equal(t, "Gopher News", data.Posts[0].Title)
	assert.EqualValues(t, 1, data.Pagination.Total)

	// Content matches too.
	w, env = doJSON(t, r, http.MethodGet, "/api/posts?search=pasta", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &data)
	require.Len(t, data.Posts, 1)
	assert.Equal(t, "Cooking", data.Posts[0].Title)
}

func TestListPostsCategoryFilter(t *testing.T) {
	r, _ := newTestServer(t)
	sess := registerUser(t, r, "alice@example.com", "Alice")
	techID := createCategory(t, r, sess, "Tech", "tech")
	createPost(t, r, sess, "Tagged", "body", techID)
	createPost(t, r, sess, "Untagged", "body")

	w, env := doJSON(t, r, http.MethodGet, "/api/posts?category=tech", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	decodeData(t, env, &data)
	require.Len(t, data.Posts, 1)
	assert.Equal(t, "Tagged", data.Posts[0].Title)
	assert.EqualValues(t, 1, data.Pagination.Total)

	// Unknown slug yields an empty page, not an error.
	w, env = doJSON(t, r, http.MethodGet, "/api/posts?category=nope", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, env, &data)
	assert.Empty(t, data.Posts)
}
