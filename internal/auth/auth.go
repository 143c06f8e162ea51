package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"todo_api/internal/lib/hasher"
	"todo_api/internal/lib/jwt"
	"todo_api/internal/lib/logger/sl"
	"todo_api/internal/models"
	"todo_api/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountExists      = errors.New("account already exists")
)

type Auth struct {
	log         *slog.Logger
	accSaver    AccountSaver
	accProvider AccountProvider
	codec       *jwt.Codec
	cache       TokenCache
	publisher   Publisher
}

type AccountSaver interface {
	// SaveAccount stores the account together with its tokens in one step.
	SaveAccount(ctx context.Context, acc models.Account) (models.Account, error)
	SaveToken(ctx context.Context, accountID, access, token string) error
	DeleteToken(ctx context.Context, accountID, token string) error
}

type AccountProvider interface {
	Account(ctx context.Context, email string) (models.Account, error)
	AccountByID(ctx context.Context, id string) (models.Account, error)
	AccountByToken(ctx context.Context, id, access, token string) (models.Account, error)
}

// TokenCache remembers which account an active token resolved to.
// Storage stays the source of truth; a miss always falls through to it.
// SetAccount must never replace a Revoke marker, so a lookup that read
// storage before a revoke cannot bring the token back.
type TokenCache interface {
	Account(ctx context.Context, token string) (models.Account, bool, error)
	SetAccount(ctx context.Context, token string, acc models.Account) error
	Revoke(ctx context.Context, token string) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Option func(a *Auth)

func WithTokenCache(cache TokenCache) Option {
	return func(a *Auth) {
		a.cache = cache
	}
}

func WithPublisher(p Publisher) Option {
	return func(a *Auth) {
		a.publisher = p
	}
}

func New(
	log *slog.Logger,
	accSaver AccountSaver,
	accProvider AccountProvider,
	codec *jwt.Codec,
	opts ...Option,
) *Auth {
	a := &Auth{
		log:         log,
		accSaver:    accSaver,
		accProvider: accProvider,
		codec:       codec,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// * Register создает аккаунт вместе с первым токеном, без аккаунтов без токена
func (a *Auth) Register(ctx context.Context, email, password string) (models.Account, string, error) {
	const op = "auth.Register"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("registering new account")

	passHash, err := hasher.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.Account{}, "", fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()

	token, err := a.codec.Sign(id, jwt.AccessAuth)
	if err != nil {
		log.Error("failed to sign token", sl.Err(err))
		return models.Account{}, "", fmt.Errorf("%s: %w", op, err)
	}

	acc, err := a.accSaver.SaveAccount(ctx, models.Account{
		ID:       id,
		Email:    email,
		PassHash: passHash,
		Tokens:   []models.Token{{Access: jwt.AccessAuth, Token: token}},
	})
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("account already exists")
			return models.Account{}, "", fmt.Errorf("%s: %w", op, ErrAccountExists)
		}

		log.Error("failed to save account", sl.Err(err))
		return models.Account{}, "", fmt.Errorf("%s: %w", op, err)
	}

	a.notifyRegistered(ctx, log, acc)

	log.Info("account registered", slog.String("account_id", acc.ID))

	return acc, token, nil
}

// * Login проверяет учетные данные и выпускает новый токен
func (a *Auth) Login(ctx context.Context, email, password string) (models.Account, string, error) {
	const op = "auth.Login"

	acc, err := a.FindByCredentials(ctx, email, password)
	if err != nil {
		return models.Account{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.IssueToken(ctx, acc)
	if err != nil {
		return models.Account{}, "", fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("account logged in", slog.String("op", op), slog.String("account_id", acc.ID))

	return acc, token, nil
}

// FindByCredentials answers ErrInvalidCredentials both for an unknown email
// and for a wrong password, so callers cannot enumerate accounts.
func (a *Auth) FindByCredentials(ctx context.Context, email, password string) (models.Account, error) {
	const op = "auth.FindByCredentials"

	log := a.log.With(
		slog.String("op", op),
	)

	acc, err := a.accProvider.Account(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			// Same bcrypt cost as a real comparison.
			hasher.Verify(password, dummyHash())

			log.Info("invalid credentials")
			return models.Account{}, ErrInvalidCredentials
		}

		log.Error("failed to get account", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if !hasher.Verify(password, acc.PassHash) {
		log.Info("invalid credentials")
		return models.Account{}, ErrInvalidCredentials
	}

	return acc, nil
}

// FindByActiveToken accepts a token only when its signature is valid and the
// account still lists the exact {access, token} pair. Revoked tokens keep a
// valid signature, so the second check is what makes logout effective.
func (a *Auth) FindByActiveToken(ctx context.Context, token string) (models.Account, error) {
	const op = "auth.FindByActiveToken"

	log := a.log.With(
		slog.String("op", op),
	)

	claims, err := a.codec.Verify(token)
	if err != nil {
		log.Debug("token rejected", sl.Err(err))
		return models.Account{}, ErrInvalidToken
	}

	if a.cache != nil {
		acc, ok, err := a.cache.Account(ctx, token)
		if err != nil {
			log.Warn("token cache lookup failed", sl.Err(err))
		}
		if ok && acc.ID == claims.AccountID {
			return acc, nil
		}
	}

	acc, err := a.accProvider.AccountByToken(ctx, claims.AccountID, claims.Access, token)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Debug("token is not active")
			return models.Account{}, ErrInvalidToken
		}

		log.Error("failed to get account by token", sl.Err(err))
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	if a.cache != nil {
		if err := a.cache.SetAccount(ctx, token, acc); err != nil {
			log.Warn("failed to cache token", sl.Err(err))
		}
	}

	return acc, nil
}

// * IssueToken подписывает токен и добавляет его в список аккаунта
func (a *Auth) IssueToken(ctx context.Context, acc models.Account) (string, error) {
	const op = "auth.IssueToken"

	log := a.log.With(
		slog.String("op", op),
		slog.String("account_id", acc.ID),
	)

	token, err := a.codec.Sign(acc.ID, jwt.AccessAuth)
	if err != nil {
		log.Error("failed to sign token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accSaver.SaveToken(ctx, acc.ID, jwt.AccessAuth, token); err != nil {
		log.Error("failed to save token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// * RevokeToken удаляет токен из списка аккаунта и из кеша
func (a *Auth) RevokeToken(ctx context.Context, acc models.Account, token string) error {
	const op = "auth.RevokeToken"

	log := a.log.With(
		slog.String("op", op),
		slog.String("account_id", acc.ID),
	)

	if err := a.accSaver.DeleteToken(ctx, acc.ID, token); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("token already revoked")
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		log.Error("failed to delete token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if a.cache != nil {
		if err := a.cache.Revoke(ctx, token); err != nil {
			log.Warn("failed to mark token revoked in cache", sl.Err(err))
		}
	}

	log.Info("token revoked")

	return nil
}

func (a *Auth) AccountByID(ctx context.Context, id string) (models.Account, error) {
	const op = "auth.AccountByID"

	acc, err := a.accProvider.AccountByID(ctx, id)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return acc, nil
}

func (a *Auth) notifyRegistered(ctx context.Context, log *slog.Logger, acc models.Account) {
	if a.publisher == nil {
		return
	}

	msg := models.Message{
		Email:   acc.Email,
		Subject: "Welcome to Todo API",
		Body:    fmt.Sprintf("Your account %s is ready. Start adding todos!", acc.Email),
		Purpose: "account_registered",
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		log.Warn("failed to publish registration message", sl.Err(err))
	}
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil
	}

	return hash
})
