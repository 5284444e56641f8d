package service

import (
	"errors"
	"fmt"

	"github.com/arkhipov/post-service/internal/apperr"
	"github.com/arkhipov/post-service/internal/config"
	"github.com/arkhipov/post-service/internal/mailer"
	"github.com/arkhipov/post-service/internal/models"
	"github.com/arkhipov/post-service/internal/repository"
	"github.com/arkhipov/post-service/internal/token"
	"github.com/arkhipov/post-service/internal/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	tokens *token.Manager
	mail   *mailer.Sender
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(repo *repository.Repository, tokens *token.Manager, mail *mailer.Sender, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, tokens: tokens, mail: mail, log: log, config: cfg}
}

// Register creates a new user and returns a signed token for it.
// Validation order is email, name, password; the first failure wins.
func (s *Service) Register(name, email, password string) (string, error) {
	if err := validation.Email(email); err != nil {
		return "", err
	}
	if err := validation.Name(name); err != nil {
		return "", err
	}
	if err := validation.Password(password); err != nil {
		return "", err
	}

	taken, err := s.repo.EmailTaken(email, 0)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperr.Conflict("Email already registered")
	}
	taken, err = s.repo.NameTaken(name, 0)
	if err != nil {
		return "", err
	}
	if taken {
		return "", apperr.Conflict("Name already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.CreateUser(user); err != nil {
		// The pre-checks race with concurrent registrations; the unique
		// constraints are the real enforcement.
		return "", conflictFor(err)
	}

	tokenString, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", err
	}

	if s.mail.Enabled() {
		go func() {
			_ = s.mail.SendWelcome(user.Email, user.Name)
		}()
	}

	s.log.Infof("User registered: %s", user.Email)
	return tokenString, nil
}

// Login authenticates a user and returns a signed token plus the user record.
// Unknown email and wrong password are deliberately indistinguishable.
func (s *Service) Login(email, password string) (string, *models.User, error) {
	if err := validation.Email(email); err != nil {
		return "", nil, err
	}

	user, err := s.repo.FindUserByEmail(email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorized("Invalid credentials")
	}

	tokenString, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, user, nil
}

// GetMe returns the caller's own record
func (s *Service) GetMe(userID int) (*models.User, error) {
	user, err := s.repo.FindUserByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateMe applies a partial update to the caller's record. Nil fields keep
// their current value; at least one must be supplied.
func (s *Service) UpdateMe(userID int, name, email, password *string) error {
	if name == nil && email == nil && password == nil {
		return apperr.BadRequest("Nothing to update")
	}

	if name != nil {
		if err := validation.Name(*name); err != nil {
			return err
		}
		taken, err := s.repo.NameTaken(*name, userID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.BadRequest("Name already registered")
		}
	}

	if email != nil {
		if err := validation.Email(*email); err != nil {
			return err
		}
		taken, err := s.repo.EmailTaken(*email, userID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.BadRequest("Email already registered")
		}
	}

	var passwordHash *string
	if password != nil {
		if err := validation.Password(*password); err != nil {
			return err
		}
		currentHash, err := s.repo.PasswordHash(userID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(*password)) == nil {
			return apperr.BadRequest("The password must be different from the current one")
		}
		newHash, err := bcrypt.GenerateFromPassword([]byte(*password), s.config.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(newHash)
		passwordHash = &hashStr
	}

	if err := s.repo.UpdateUser(userID, name, email, passwordHash); err != nil {
		return updateConflictFor(err)
	}

	s.log.Infof("User updated: %d", userID)
	return nil
}

// CreatePost creates a post owned by the caller and returns it with the
// author's display name
func (s *Service) CreatePost(userID int, title, content string) (*models.Post, string, error) {
	if err := validation.Title(title); err != nil {
		return nil, "", err
	}
	if err := validation.Content(content); err != nil {
		return nil, "", err
	}

	// The token may outlive the account it was issued for
	name, err := s.repo.UserName(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, "", err
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  userID,
	}
	if err := s.repo.CreatePost(post); err != nil {
		return nil, "", err
	}

	s.log.Infof("Post %d created by user %d", post.ID, userID)
	return post, name, nil
}

// ListPosts returns the caller's posts, newest first
func (s *Service) ListPosts(userID int) ([]models.Post, error) {
	return s.repo.PostsByUser(userID)
}

// UpdatePost applies a partial update to a post the caller owns
func (s *Service) UpdatePost(userID, postID int, title, content *string) error {
	if title == nil && content == nil {
		return apperr.BadRequest("Nothing to update")
	}
	if title != nil {
		if err := validation.Title(*title); err != nil {
			return err
		}
	}
	if content != nil {
		if err := validation.Content(*content); err != nil {
			return err
		}
	}

	updated, err := s.repo.UpdatePost(postID, userID, title, content)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("Post not found")
	}

	s.log.Infof("Post %d updated by user %d", postID, userID)
	return nil
}

// DeletePost removes a post the caller owns
func (s *Service) DeletePost(userID, postID int) error {
	deleted, err := s.repo.DeletePost(postID, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("Post not found")
	}

	s.log.Infof("Post %d deleted by user %d", postID, userID)
	return nil
}

// conflictFor maps a duplicate-key error from an insert to its 409 response
func conflictFor(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.Conflict("Email already registered")
	case errors.Is(err, repository.ErrDuplicateName):
		return apperr.Conflict("Name already registered")
	default:
		return err
	}
}

// updateConflictFor maps a duplicate-key error from a self-update, where
// conflicts respond 400
func updateConflictFor(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.BadRequest("Email already registered")
	case errors.Is(err, repository.ErrDuplicateName):
		return apperr.BadRequest("Name already registered")
	default:
		return err
	}
}
