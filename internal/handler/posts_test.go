package handler

import (
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	userNameQuery    = `SELECT name FROM users WHERE id = $1`
	insertPostQuery  = `INSERT INTO posts (title, content, user_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	postsByUserQuery = `SELECT id, title, content, user_id, created_at FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	updatePostQuery  = `UPDATE posts SET title = COALESCE($1, title), content = COALESCE($2, content) WHERE id = $3 AND user_id = $4`
	deletePostQuery  = `DELETE FROM posts WHERE id = $1 AND user_id = $2`
)

func TestCreatePostSuccess(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectQuery(regexp.QuoteMeta(userNameQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice_1"))
	env.mock.
		ExpectQuery(regexp.QuoteMeta(insertPostQuery)).
		WithArgs("First post", "This is long enough content.", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))

	resp := env.do(t, http.MethodPost, "/users/posts", env.issueToken(t, 5, "user"), map[string]string{
		"title":   "First post",
		"content": "This is long enough content.",
	})
	mustStatus(t, resp, http.StatusCreated)

	out := decodeBody(t, resp)
	if out["message"] != "Post created successfully" {
		t.Errorf("message = %q", out["message"])
	}
	post, _ := out["post"].(map[string]any)
	if post == nil {
		t.Fatal("expected a post object")
	}
	if post["userId"] != float64(5) || post["name"] != "alice_1" ||
		post["title"] != "First post" || post["content"] != "This is long enough content." {
		t.Errorf("post = %v", post)
	}
	env.expectationsMet(t)
}

func TestCreatePostMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/users/posts", env.issueToken(t, 5, "user"), map[string]string{
		"title": "First post",
	})
	mustError(t, resp, http.StatusBadRequest, "Title and content are required")
}

func TestCreatePostShortTitle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/users/posts", env.issueToken(t, 5, "user"), map[string]string{
		"title":   "ab",
		"content": "This is long enough content.",
	})
	mustError(t, resp, http.StatusBadRequest, "Title must be between 3 and 120 characters")
}

func TestCreatePostMinimumLengths(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectQuery(regexp.QuoteMeta(userNameQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice_1"))
	env.mock.
		ExpectQuery(regexp.QuoteMeta(insertPostQuery)).
		WithArgs("abc", "0123456789", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, time.Now()))

	resp := env.do(t, http.MethodPost, "/users/posts", env.issueToken(t, 5, "user"), map[string]string{
		"title":   "abc",
		"content": "0123456789",
	})
	mustStatus(t, resp, http.StatusCreated)
	env.expectationsMet(t)
}

func TestCreatePostStaleToken(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectQuery(regexp.QuoteMeta(userNameQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	resp := env.do(t, http.MethodPost, "/users/posts", env.issueToken(t, 5, "user"), map[string]string{
		"title":   "First post",
		"content": "This is long enough content.",
	})
	mustError(t, resp, http.StatusNotFound, "User not found")
	env.expectationsMet(t)
}

func TestListPosts(t *testing.T) {
	env := newTestEnv(t)

	newer := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	older := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	env.mock.
		ExpectQuery(regexp.QuoteMeta(postsByUserQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}).
			AddRow(2, "Second", "Second post content.", 5, newer).
			AddRow(1, "First", "First post content here.", 5, older))

	resp := env.do(t, http.MethodGet, "/users/posts", env.issueToken(t, 5, "user"), nil)
	mustStatus(t, resp, http.StatusOK)

	out := decodeBody(t, resp)
	posts, _ := out["posts"].([]any)
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	first, _ := posts[0].(map[string]any)
	if first["id"] != float64(2) || first["title"] != "Second" {
		t.Errorf("first post = %v, want the newest", first)
	}
	env.expectationsMet(t)
}

func TestListPostsEmpty(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectQuery(regexp.QuoteMeta(postsByUserQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}))

	resp := env.do(t, http.MethodGet, "/users/posts", env.issueToken(t, 5, "user"), nil)
	mustStatus(t, resp, http.StatusOK)

	out := decodeBody(t, resp)
	posts, ok := out["posts"].([]any)
	if !ok {
		t.Fatalf("posts is %T, want an array", out["posts"])
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
	env.expectationsMet(t)
}

func TestUpdatePostNothingToUpdate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPatch, "/users/posts/3", env.issueToken(t, 5, "user"), map[string]any{})
	mustError(t, resp, http.StatusBadRequest, "Nothing to update")
}

func TestUpdatePostNotOwner(t *testing.T) {
	env := newTestEnv(t)

	// The post exists but belongs to someone else; the ownership filter in
	// the statement updates nothing.
	env.mock.
		ExpectExec(regexp.QuoteMeta(updatePostQuery)).
		WithArgs(nil, "Updated content goes here.", 3, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	resp := env.do(t, http.MethodPatch, "/users/posts/3", env.issueToken(t, 5, "user"), map[string]string{
		"content": "Updated content goes here.",
	})
	mustError(t, resp, http.StatusNotFound, "Post not found")
	env.expectationsMet(t)
}

func TestUpdatePostContentOnly(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectExec(regexp.QuoteMeta(updatePostQuery)).
		WithArgs(nil, "Updated content goes here.", 3, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, http.MethodPatch, "/users/posts/3", env.issueToken(t, 5, "user"), map[string]string{
		"content": "Updated content goes here.",
	})
	mustStatus(t, resp, http.StatusNoContent)
	env.expectationsMet(t)
}

func TestUpdatePostShortTitle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPatch, "/users/posts/3", env.issueToken(t, 5, "user"), map[string]string{
		"title": "ab",
	})
	mustError(t, resp, http.StatusBadRequest, "Title must be between 3 and 120 characters")
}

func TestDeletePostSuccess(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectExec(regexp.QuoteMeta(deletePostQuery)).
		WithArgs(3, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := env.do(t, http.MethodDelete, "/users/posts/3", env.issueToken(t, 5, "user"), nil)
	mustStatus(t, resp, http.StatusNoContent)
	env.expectationsMet(t)
}

func TestDeletePostNotOwner(t *testing.T) {
	env := newTestEnv(t)

	env.mock.
		ExpectExec(regexp.QuoteMeta(deletePostQuery)).
		WithArgs(3, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	resp := env.do(t, http.MethodDelete, "/users/posts/3", env.issueToken(t, 5, "user"), nil)
	mustError(t, resp, http.StatusNotFound, "Post not found")
	env.expectationsMet(t)
}

func TestPostsFeed(t *testing.T) {
	env := newTestEnv(t)

	createdAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	env.mock.
		ExpectQuery(regexp.QuoteMeta(userByIDQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow(5, "alice_1", "a@b.com", "user", createdAt))
	env.mock.
		ExpectQuery(regexp.QuoteMeta(postsByUserQuery)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content", "user_id", "created_at"}).
			AddRow(1, "First", "First post content here.", 5, createdAt))

	resp := env.do(t, http.MethodGet, "/users/posts/feed", env.issueToken(t, 5, "user"), nil)
	mustStatus(t, resp, http.StatusOK)

	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/atom+xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := resp.Body.String()
	for _, fragment := range []string{"<feed", "Posts by alice_1", "<entry>", "First post content here."} {
		if !strings.Contains(body, fragment) {
			t.Errorf("feed missing %q in:\n%s", fragment, body)
		}
	}
	env.expectationsMet(t)
}
