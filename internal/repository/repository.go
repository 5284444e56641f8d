package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/arkhipov/post-service/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the users email constraint rejects a write
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateName is returned when the users name constraint rejects a write
	ErrDuplicateName = errors.New("duplicate name")
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTables creates the required tables if they do not exist
func (r *Repository) CreateTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(20) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id SERIAL PRIMARY KEY,
			title VARCHAR(120) NOT NULL,
			content TEXT NOT NULL,
			user_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS posts_user_created_idx ON posts(user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user. The unique constraints on name and email are
// the actual uniqueness enforcement; callers' existence pre-checks are only a
// fast path for a friendlier error.
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, role, created_at`
	err := r.db.QueryRow(query, user.Name, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.Role, &user.CreatedAt)
	if err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, password, role, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, name, email, role, created_at
		FROM users
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UserName returns the display name for a user id
func (r *Repository) UserName(id int) (string, error) {
	var name string
	err := r.db.QueryRow(`SELECT name FROM users WHERE id = $1`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find user name: %w", err)
	}
	return name, nil
}

// PasswordHash returns the stored password hash for a user id
func (r *Repository) PasswordHash(id int) (string, error) {
	var hash string
	err := r.db.QueryRow(`SELECT password FROM users WHERE id = $1`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find password hash: %w", err)
	}
	return hash, nil
}

// EmailTaken reports whether another user already uses the email
func (r *Repository) EmailTaken(email string, excludeID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id != $2)`
	if err := r.db.QueryRow(query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// NameTaken reports whether another user already uses the name
func (r *Repository) NameTaken(name string, excludeID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE name = $1 AND id != $2)`
	if err := r.db.QueryRow(query, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check name: %w", err)
	}
	return exists, nil
}

// UpdateUser applies a partial update; nil fields keep the existing value.
func (r *Repository) UpdateUser(id int, name, email, passwordHash *string) error {
	query := `
		UPDATE users
		SET name = COALESCE($1, name),
		    email = COALESCE($2, email),
		    password = COALESCE($3, password)
		WHERE id = $4`
	if _, err := r.db.Exec(query, name, email, passwordHash, id); err != nil {
		if dup := duplicateErr(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// CreatePost inserts a new post owned by user_id
func (r *Repository) CreatePost(post *models.Post) error {
	query := `
		INSERT INTO posts (title, content, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, post.Title, post.Content, post.UserID).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// PostsByUser returns the user's posts, newest first
func (r *Repository) PostsByUser(userID int) ([]models.Post, error) {
	query := `
		SELECT id, title, content, user_id, created_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// UpdatePost applies a partial update to a post the user owns. Ownership is
// enforced in the WHERE clause; a zero row count means wrong id or not owner.
func (r *Repository) UpdatePost(id, userID int, title, content *string) (bool, error) {
	query := `
		UPDATE posts
		SET title = COALESCE($1, title),
		    content = COALESCE($2, content)
		WHERE id = $3 AND user_id = $4`
	result, err := r.db.Exec(query, title, content, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update post: %w", err)
	}
	return affected > 0, nil
}

// DeletePost removes a post the user owns
func (r *Repository) DeletePost(id, userID int) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}
	return affected > 0, nil
}

// CountUsers returns the total number of users
func (r *Repository) CountUsers() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountPosts returns the total number of posts
func (r *Repository) CountPosts() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// duplicateErr translates a unique_violation into the matching sentinel
func duplicateErr(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch pqErr.Constraint {
	case "users_email_key":
		return ErrDuplicateEmail
	case "users_name_key":
		return ErrDuplicateName
	default:
		return fmt.Errorf("unique constraint violated: %w", err)
	}
}
