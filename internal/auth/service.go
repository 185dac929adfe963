package auth

import (
	"context"
	"time"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/models"
	"crown_back_end/internal/store"

	"go.uber.org/zap"
)

// Session is returned to the client after sign in.
type Session struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

type Service struct {
	store    store.Client
	verifier Verifier
	tokens   *TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(st store.Client, verifier Verifier, tokens *TokenIssuer, logger *zap.Logger) *Service {
	return &Service{store: st, verifier: verifier, tokens: tokens, logger: logger, now: time.Now}
}

// LoginWithGoogle verifies the Google token, creates or refreshes the user
// and opens a session.
func (s *Service) LoginWithGoogle(ctx context.Context, token string) (Session, error) {
	id, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return Session{}, err
	}
	return s.open(ctx, id)
}

// LoginWithCode finishes the server-side code flow.
func (s *Service) LoginWithCode(ctx context.Context, code string) (Session, error) {
	exchanger, ok := s.verifier.(interface {
		Exchange(ctx context.Context, code string) (Identity, error)
	})
	if !ok {
		return Session{}, apperr.Validation("code flow is not available")
	}
	id, err := exchanger.Exchange(ctx, code)
	if err != nil {
		return Session{}, err
	}
	return s.open(ctx, id)
}

func (s *Service) open(ctx context.Context, id Identity) (Session, error) {
	user, err := s.upsertUser(ctx, id)
	if err != nil {
		return Session{}, err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("✅ user signed in", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return Session{AccessToken: token, TokenType: "bearer", User: user}, nil
}

// upsertUser matches users by email. Existing users get their name and
// avatar refreshed; the role is never changed here.
func (s *Service) upsertUser(ctx context.Context, id Identity) (models.User, error) {
	now := s.now().UTC()
	byEmail := store.Where().Eq("email", id.Email)
	rows, err := s.store.Fetch(ctx, store.TableUsers, byEmail)
	if err != nil {
		return models.User{}, apperr.Dependency("fetch user", err)
	}

	if len(rows) > 0 {
		patch := store.Record{"name": id.Name, "avatar_url": id.AvatarURL, "updated_at": now}
		if rows[0].String("google_id") == "" {
			patch["google_id"] = id.SubjectID
		}
		rows, err = s.store.Update(ctx, store.TableUsers, store.Where().Eq("id", rows[0].String("id")), patch)
		if err != nil {
			return models.User{}, apperr.Dependency("update user", err)
		}
	} else {
		u := models.User{
			Email:     id.Email,
			Name:      id.Name,
			GoogleID:  id.SubjectID,
			AvatarURL: id.AvatarURL,
			Role:      models.RoleCustomer,
			CreatedAt: now,
			UpdatedAt: now,
		}
		rows, err = s.store.Insert(ctx, store.TableUsers, u.Record())
		if err != nil {
			return models.User{}, apperr.Dependency("insert user", err)
		}
	}
	if len(rows) == 0 {
		return models.User{}, apperr.NotFound("user", id.Email)
	}
	user, err := models.UserFromRecord(rows[0])
	if err != nil {
		return models.User{}, apperr.Dependency("decode user", err)
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, userID string) (models.User, error) {
	rows, err := s.store.Fetch(ctx, store.TableUsers, store.Where().Eq("id", userID))
	if err != nil {
		return models.User{}, apperr.Dependency("fetch user", err)
	}
	if len(rows) == 0 {
		return models.User{}, apperr.NotFound("user", userID)
	}
	user, err := models.UserFromRecord(rows[0])
	if err != nil {
		return models.User{}, apperr.Dependency("decode user", err)
	}
	return user, nil
}

func (s *Service) Tokens() *TokenIssuer { return s.tokens }
