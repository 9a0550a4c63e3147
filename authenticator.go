package authkit

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// Auther runs the authentication business transactions: register, login,
// refresh, logout. It owns no mutable state beyond its collaborators and is
// safe for concurrent use.
type Auther struct {
	repos       RepositoryManager
	tokens      TokenService
	hasher      PasswordHasher
	stamper     *Stamper
	logger      Logger
	sink        ActivitySink
	defaultRole string
	accessTTL   time.Duration
}

// NewAuthenticator returns a new Auther wired to the given stores and token
// service.
func NewAuthenticator(repos RepositoryManager, tokens TokenService, cfg Config) *Auther {
	return &Auther{
		repos:       repos,
		tokens:      tokens,
		hasher:      NewBcryptHasher(0),
		stamper:     NewStamper(),
		logger:      defLogger{},
		sink:        noopActivitySink{},
		defaultRole: cfg.GetDefaultRole(),
		accessTTL:   cfg.GetAccessTokenExpiration(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHasher swaps the password hasher, e.g. for a lower bcrypt cost in tests.
func (s *Auther) WithHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithStamper shares an audit stamper, e.g. one with a fixed clock.
func (s *Auther) WithStamper(stamper *Stamper) *Auther {
	if stamper != nil {
		s.stamper = stamper
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.sink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Auther.
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// RegisterInput is the registration payload. UseHashid derives a
// deterministic user ID from the email instead of a random UUID.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	UseHashid   bool   `json:"use_hashid"`
}

func (p RegisterInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&p.PhoneNumber, PhoneNumber),
	)
}

// AuthResult is the outcome of a successful register, login, or refresh.
type AuthResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *UserView `json:"user"`
}

// Register creates a new account: uniqueness pre-checks, password hashing,
// default role grant, and audit-stamped persistence in one transaction.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(FormatValidationErrorToMap(err))
	}

	if taken, err := s.repos.Users().ExistsByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, withMeta(ErrUsernameTaken, map[string]any{"username": input.Username})
	}

	if taken, err := s.repos.Users().ExistsByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, withMeta(ErrEmailTaken, map[string]any{"email": input.Email})
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
	}

	if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	actor := CurrentActor(ctx)

	err = s.repos.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		role, err := s.repos.Roles().GetOrCreateTx(ctx, tx, s.defaultRole, "Default role granted at registration")
		if err != nil {
			return err
		}

		user.EnsureDefaults()
		s.stamper.StampCreate(user, actor)

		if _, err := s.repos.Users().CreateTx(ctx, tx, user); err != nil {
			return err
		}

		return s.repos.Users().ReplaceRolesTx(ctx, tx, user, []*Role{role})
	})
	if err != nil {
		s.logger.Error("Register failed for %q: %v", input.Username, err)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, actor, user.ID.String(), map[string]any{
		"username": user.Username,
	})

	return s.authResult(user)
}

// Login authenticates a username-or-email identifier against the stored
// password digest. An unknown identifier and a wrong password produce the
// same error so callers cannot enumerate accounts.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	user, err := s.repos.Users().GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsNotFound(err) {
			// Burn a compare so the miss costs as much as a mismatch.
			_ = ComparePasswordAndHash(password, RandomPasswordHash())
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": identifier,
			})
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := user.CanAuthenticate(); err != nil {
		s.logger.Warn("Login blocked for %q: %v", identifier, err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
			"identifier": identifier,
			"status":     user.Status,
		})
		return nil, err
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch for %q", identifier)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, user.ID.String(), map[string]any{
			"identifier": identifier,
		})
		return nil, ErrInvalidCredentials
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return s.authResult(user)
}

// Refresh exchanges a valid refresh token for a new access/refresh pair.
// Rotation only: the presented token stays formally valid until it expires,
// there is no server-side invalidation.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Claims(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Kind() != TokenKindRefresh {
		return nil, ErrWrongTokenKind
	}

	username, err := subjectUsername(claims)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users().GetByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, withMeta(ErrInvalidToken, map[string]any{"subject": username})
		}
		return nil, err
	}

	if err := user.CanAuthenticate(); err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), nil)

	return s.authResult(user)
}

// Logout is advisory: it clears the local auth context. Issued tokens remain
// valid until expiry.
func (s *Auther) Logout(ctx context.Context) context.Context {
	return ClearAuthContext(ctx)
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.sink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) authResult(user *User) (*AuthResult, error) {
	// The subject is the username: immutable once registered, and stable
	// across ID strategies (random UUID or hashid-derived).
	subject := user.Username

	access, _, err := s.tokens.IssueAccessToken(subject, user.RoleNames())
	if err != nil {
		return nil, err
	}

	refresh, _, err := s.tokens.IssueRefreshToken(subject)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.View(),
	}, nil
}
