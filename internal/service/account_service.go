package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"boardshop/internal/domain"
	"boardshop/internal/mylogger"
	"boardshop/internal/repository"
	"boardshop/internal/session"
)

// CodeSender доставляет код восстановления пароля вне API
type CodeSender interface {
	SendRecoveryCode(ctx context.Context, email, code string) error
}

type AccountConfig struct {
	AdminUsername   string
	AdminPassword   string
	RecoveryCodeTTL time.Duration
	BcryptCost      int
	// ExposeRecoveryCode returns the code to the caller. Development only.
	ExposeRecoveryCode bool
}

type RegisterInput struct {
	Name      string `json:"nombre" validate:"required,max=100"`
	Username  string `json:"usuario" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	BirthDate string `json:"fechaNacimiento" validate:"required,datetime=2006-01-02"`
	Comments  string `json:"comentarios" validate:"max=500"`
}

// ProfileUpdate nil fields are left unchanged.
type ProfileUpdate struct {
	Name      *string `json:"nombre" validate:"omitempty,min=1,max=100"`
	Username  *string `json:"usuario" validate:"omitempty,min=3,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password"`
	BirthDate *string `json:"fechaNacimiento" validate:"omitempty,datetime=2006-01-02"`
	Comments  *string `json:"comentarios" validate:"omitempty,max=500"`
}

// AccountService справочник пользователей, сессии пользователя и администратора, восстановление пароля
type AccountService struct {
	store    repository.Store
	locker   repository.Locker
	cfg      AccountConfig
	sender   CodeSender
	validate *validator.Validate
	logger   *zap.Logger

	now       func() time.Time
	newCode   func() (string, error)
	dummyHash []byte
}

type AccountOption func(*AccountService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

// WithCodeGenerator replaces the random recovery code source.
func WithCodeGenerator(gen func() (string, error)) AccountOption {
	return func(s *AccountService) { s.newCode = gen }
}

func NewAccountService(
	store repository.Store,
	locker repository.Locker,
	cfg AccountConfig,
	sender CodeSender,
	logger *zap.Logger,
	opts ...AccountOption,
) (*AccountService, error) {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.RecoveryCodeTTL == 0 {
		cfg.RecoveryCodeTTL = 10 * time.Minute
	}

	// compared against when the identifier is unknown, so both login failures cost the same
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	s := &AccountService{
		store:     store,
		locker:    locker,
		cfg:       cfg,
		sender:    sender,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
		newCode:   randomSixDigits,
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *AccountService) hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(h), nil
}

func (s *AccountService) loadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if _, err := repository.GetJSON(ctx, s.store, s.logger, repository.KeyUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *AccountService) saveUsers(ctx context.Context, users []domain.User) error {
	return repository.SetJSON(ctx, s.store, repository.KeyUsers, users)
}

func indexByEmail(users []domain.User, email string) int {
	for i, u := range users {
		if u.HasEmail(email) {
			return i
		}
	}
	return -1
}

func indexByUsername(users []domain.User, username string) int {
	for i, u := range users {
		if u.HasUsername(username) {
			return i
		}
	}
	return -1
}

func indexByID(users []domain.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *AccountService) setCurrentUser(ctx context.Context, sess *session.Session, u domain.User) error {
	return s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return repository.SetJSON(ctx, sessionStore(s.store, sess), repository.KeyCurrentUser, u)
	})
}

// Register creates the account and logs it in.
func (s *AccountService) Register(ctx context.Context, sess *session.Session, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Error registering user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	var created domain.User
	err = s.locker.WithLock(ctx, usersLock, func(ctx context.Context) error {
		users, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		if indexByEmail(users, in.Email) >= 0 {
			return ErrDuplicateEmail
		}
		if indexByUsername(users, in.Username) >= 0 {
			return ErrDuplicateUsername
		}

		created = domain.User{
			ID:           uuid.NewString(),
			Name:         in.Name,
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hashed,
			BirthDate:    in.BirthDate,
			Comments:     in.Comments,
			RegisteredAt: s.now(),
		}
		return s.saveUsers(ctx, append(users, created))
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			mylogger.Info(ctx, s.logger, "User already exists", zap.String("email", in.Email), zap.Error(err))
			return nil, err
		}
		mylogger.Error(ctx, s.logger, "Error creating user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	if err := s.setCurrentUser(ctx, sess, created); err != nil {
		return nil, err
	}

	mylogger.Info(ctx, s.logger, "User registered", zap.String("user_id", created.ID))
	return &created, nil
}

// Login accepts an email or username. Unknown identifier and wrong password both yield
// ErrInvalidCredentials. With remember set, the identifier is kept for the login form;
// otherwise any remembered identifier is cleared.
func (s *AccountService) Login(ctx context.Context, sess *session.Session, identifier, password string, remember bool) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	i := indexByEmail(users, identifier)
	if i < 0 {
		i = indexByUsername(users, identifier)
	}
	if i < 0 || identifier == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		mylogger.Warn(ctx, s.logger, "Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	user := users[i]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		mylogger.Warn(ctx, s.logger, "Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	err = s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		st := sessionStore(s.store, sess)
		if err := repository.SetJSON(ctx, st, repository.KeyCurrentUser, user); err != nil {
			return err
		}
		if remember {
			return st.Set(ctx, repository.KeyRememberedUser, []byte(identifier))
		}
		return st.Delete(ctx, repository.KeyRememberedUser)
	})
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to persist session", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}

	return &user, nil
}

func (s *AccountService) Logout(ctx context.Context, sess *session.Session) error {
	return s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return sessionStore(s.store, sess).Delete(ctx, repository.KeyCurrentUser)
	})
}

// CurrentUser returns ErrNoActiveSession when nobody is logged in.
func (s *AccountService) CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, error) {
	var u domain.User
	found, err := repository.GetJSON(ctx, sessionStore(s.store, sess), s.logger, repository.KeyCurrentUser, &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoActiveSession
	}
	return &u, nil
}

// RememberedUser returns the identifier saved by a remembered login, or "".
func (s *AccountService) RememberedUser(ctx context.Context, sess *session.Session) (string, error) {
	raw, err := sessionStore(s.store, sess).Get(ctx, repository.KeyRememberedUser)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}

// UpdateProfile merges upd into the logged-in user. ID and registration time never change;
// the password changes only when a non-empty one is supplied.
func (s *AccountService) UpdateProfile(ctx context.Context, sess *session.Session, upd ProfileUpdate) (*domain.User, error) {
	current, err := s.CurrentUser(ctx, sess)
	if err != nil {
		return nil, err
	}

	if err := validateStruct(s.validate, upd); err != nil {
		return nil, err
	}

	var newHash string
	if upd.Password != nil && *upd.Password != "" {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		if newHash, err = s.hash(*upd.Password); err != nil {
			return nil, err
		}
	}

	var updated domain.User
	err = s.locker.WithLock(ctx, usersLock, func(ctx context.Context) error {
		users, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		i := indexByID(users, current.ID)
		if i < 0 {
			return ErrUserNotFound
		}

		if upd.Email != nil {
			email := strings.TrimSpace(*upd.Email)
			if j := indexByEmail(users, email); j >= 0 && j != i {
				return ErrDuplicateEmail
			}
			users[i].Email = email
		}
		if upd.Username != nil {
			username := strings.TrimSpace(*upd.Username)
			if j := indexByUsername(users, username); j >= 0 && j != i {
				return ErrDuplicateUsername
			}
			users[i].Username = username
		}
		if upd.Name != nil {
			users[i].Name = strings.TrimSpace(*upd.Name)
		}
		if upd.BirthDate != nil {
			users[i].BirthDate = *upd.BirthDate
		}
		if upd.Comments != nil {
			users[i].Comments = *upd.Comments
		}
		if newHash != "" {
			users[i].PasswordHash = newHash
		}

		if err := s.saveUsers(ctx, users); err != nil {
			return err
		}
		updated = users[i]
		return s.setCurrentUser(ctx, sess, updated)
	})
	if err != nil {
		mylogger.Warn(ctx, s.logger, "Profile update rejected", zap.String("user_id", current.ID), zap.Error(err))
		return nil, err
	}

	return &updated, nil
}

// SendVerificationCode issues a 6-digit code for email, replacing any outstanding request.
// The code is returned only when ExposeRecoveryCode is set; otherwise it goes to the sender
// and the returned string is empty.
func (s *AccountService) SendVerificationCode(ctx context.Context, sess *session.Session, email string) (string, error) {
	email = strings.TrimSpace(email)

	users, err := s.loadUsers(ctx)
	if err != nil {
		return "", err
	}
	i := indexByEmail(users, email)
	if i < 0 {
		mylogger.Warn(ctx, s.logger, "Recovery requested for unknown email")
		return "", ErrUnknownEmail
	}

	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	codeHash, err := s.hash(code)
	if err != nil {
		return "", err
	}

	now := s.now()
	req := domain.PasswordRecoveryRequest{
		Email:     users[i].Email,
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.RecoveryCodeTTL),
	}

	// the previous request stays valid until this code has actually been delivered
	if s.sender != nil {
		if err := s.sender.SendRecoveryCode(ctx, users[i].Email, code); err != nil {
			mylogger.Error(ctx, s.logger, "Error sending recovery code", zap.Error(err))
			return "", fmt.Errorf("error sending recovery code: %w", err)
		}
	}

	err = s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return repository.SetJSON(ctx, sessionStore(s.store, sess), repository.KeyRecoveryCode, req)
	})
	if err != nil {
		return "", err
	}

	if s.cfg.ExposeRecoveryCode {
		return code, nil
	}
	return "", nil
}

// verify must run under the session lock.
func (s *AccountService) verify(ctx context.Context, sess *session.Session, email, code string) error {
	st := sessionStore(s.store, sess)

	var req domain.PasswordRecoveryRequest
	found, err := repository.GetJSON(ctx, st, s.logger, repository.KeyRecoveryCode, &req)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoOutstandingRequest
	}

	if req.Expired(s.now()) {
		if err := st.Delete(ctx, repository.KeyRecoveryCode); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	if !strings.EqualFold(req.Email, email) {
		return ErrCodeMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(req.CodeHash), []byte(code)); err != nil {
		return ErrCodeMismatch
	}

	return nil
}

func (s *AccountService) VerifyRecoveryCode(ctx context.Context, sess *session.Session, email, code string) error {
	email = strings.TrimSpace(email)

	err := s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return s.verify(ctx, sess, email, code)
	})
	if err != nil {
		mylogger.Warn(ctx, s.logger, "Recovery code rejected", zap.Error(err))
	}
	return err
}

// ResetPassword verifies the code, replaces the password and consumes the request.
func (s *AccountService) ResetPassword(ctx context.Context, sess *session.Session, email, code, newPassword string) error {
	email = strings.TrimSpace(email)

	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}

	err = s.locker.WithLock(ctx, usersLock, func(ctx context.Context) error {
		return s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
			if err := s.verify(ctx, sess, email, code); err != nil {
				return err
			}

			users, err := s.loadUsers(ctx)
			if err != nil {
				return err
			}
			i := indexByEmail(users, email)
			if i < 0 {
				return ErrUserNotFound
			}
			users[i].PasswordHash = hashed
			if err := s.saveUsers(ctx, users); err != nil {
				return err
			}

			st := sessionStore(s.store, sess)
			if current, err := s.CurrentUser(ctx, sess); err == nil && current.ID == users[i].ID {
				if err := repository.SetJSON(ctx, st, repository.KeyCurrentUser, users[i]); err != nil {
					return err
				}
			}
			return st.Delete(ctx, repository.KeyRecoveryCode)
		})
	})
	if err != nil {
		mylogger.Warn(ctx, s.logger, "Password reset rejected", zap.Error(err))
		return err
	}

	mylogger.Info(ctx, s.logger, "Password reset")
	return nil
}

// AdminLogin checks the configured credential pair.
func (s *AccountService) AdminLogin(ctx context.Context, sess *session.Session, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !userOK || !passOK || s.cfg.AdminUsername == "" {
		mylogger.Warn(ctx, s.logger, "Invalid admin credentials")
		return ErrInvalidCredentials
	}

	return s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return sessionStore(s.store, sess).Set(ctx, repository.KeyAdminSession, []byte("true"))
	})
}

func (s *AccountService) AdminLogout(ctx context.Context, sess *session.Session) error {
	return s.locker.WithLock(ctx, sessionLock(sess), func(ctx context.Context) error {
		return sessionStore(s.store, sess).Delete(ctx, repository.KeyAdminSession)
	})
}

func (s *AccountService) IsAdmin(ctx context.Context, sess *session.Session) (bool, error) {
	raw, err := sessionStore(s.store, sess).Get(ctx, repository.KeyAdminSession)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return string(raw) == "true", nil
}

func (s *AccountService) requireAdmin(ctx context.Context, sess *session.Session) error {
	ok, err := s.IsAdmin(ctx, sess)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *AccountService) RegisteredUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	if err := s.requireAdmin(ctx, sess); err != nil {
		return nil, err
	}
	return s.loadUsers(ctx)
}

// UserStats counts users registered on the current calendar day in the clock's location.
func (s *AccountService) UserStats(ctx context.Context, sess *session.Session) (domain.UserStats, error) {
	if err := s.requireAdmin(ctx, sess); err != nil {
		return domain.UserStats{}, err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return domain.UserStats{}, err
	}

	now := s.now()
	y, m, d := now.Date()
	stats := domain.UserStats{Total: len(users)}
	for _, u := range users {
		uy, um, ud := u.RegisteredAt.In(now.Location()).Date()
		if uy == y && um == m && ud == d {
			stats.RegisteredToday++
		}
	}
	return stats, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, sess *session.Session, id string) error {
	if err := s.requireAdmin(ctx, sess); err != nil {
		mylogger.Warn(ctx, s.logger, "Delete user without admin session", zap.String("user_id", id))
		return err
	}

	err := s.locker.WithLock(ctx, usersLock, func(ctx context.Context) error {
		users, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		i := indexByID(users, id)
		if i < 0 {
			return ErrUserNotFound
		}
		return s.saveUsers(ctx, append(users[:i], users[i+1:]...))
	})
	if err != nil {
		return err
	}

	mylogger.Info(ctx, s.logger, "User deleted", zap.String("user_id", id))
	return nil
}
