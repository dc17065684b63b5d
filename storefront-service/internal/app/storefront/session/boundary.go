package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tapestore/pkg/logger"
	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/service"
)

// State - состояние сессии покупателя
type State string

const (
	StateGuest          State = "guest"
	StateAuthenticating State = "authenticating"
	StateMerging        State = "merging"
	StateAuthenticated  State = "authenticated"
	StateLoggedOut      State = "logged_out"
)

// Credentials - данные для входа или регистрации
type Credentials struct {
	Email    string
	Password string
	Name     string
}

// Identity - результат успешной аутентификации
type Identity struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
}

// Authenticator - внешний сервис аутентификации
// Ошибки: service.ErrInvalidCredentials, service.ErrUserExists, service.ErrInvalidInput
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*Identity, error)
	Register(ctx context.Context, creds Credentials) (*Identity, error)
	Logout(ctx context.Context, accessToken string) error
}

type CartReconciler interface {
	MergeGuestCart(ctx context.Context, userID int64, lines []entity.GuestCartLine) (*entity.MergeCartResult, error)
	GetCart(ctx context.Context, userID int64) (*entity.Cart, error)
}

type WishlistReconciler interface {
	MergeGuestWishlist(ctx context.Context, userID int64, productIDs []entity.LooseValue) (*entity.Wishlist, error)
	GetWishlist(ctx context.Context, userID int64) (*entity.Wishlist, error)
}

// GuestState - гостевое состояние, которое сливается при входе
type GuestState interface {
	ReadCart(ctx context.Context, token string) ([]entity.GuestCartLine, error)
	ReadWishlist(ctx context.Context, token string) ([]entity.LooseValue, error)
	Clear(ctx context.Context, token string) error
}

// Locker сериализует слияние по гостевому токену
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Transactor объединяет слияние корзины и избранного в одну транзакцию
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Dependencies - внешние зависимости Boundary
type Dependencies struct {
	Auth     Authenticator
	Cart     CartReconciler
	Wishlist WishlistReconciler
	Guest    GuestState
	Locker   Locker
	Tx       Transactor
	// NewGuestToken выдает токен для новой гостевой сессии после выхода
	NewGuestToken func() string
}

// ErrMergeFailed - аутентификация прошла, но слияние гостевого состояния нет
// Гостевое состояние при этом не тронуто
var ErrMergeFailed = errors.New("guest state merge failed")

// Snapshot - неизменяемый снимок состояния сессии
type Snapshot struct {
	State      State
	UserID     int64
	GuestToken string
	Identity   *Identity
	Cart       *entity.Cart
	Wishlist   *entity.Wishlist
	Rejected   []entity.LineRejection

	// GuestTokenRevoked - гостевой токен израсходован этим входом,
	// клиент (во всех вкладках) должен его забыть
	GuestTokenRevoked bool
}

// Boundary - конечный автомат сессии:
// Guest -> Authenticating -> Merging -> Authenticated -> LoggedOut -> Guest.
// Слияние гостевого состояния происходит не более одного раза на вход,
// состояние меняется только через результаты операций
type Boundary struct {
	mu         sync.Mutex
	deps       Dependencies
	state      State
	guestToken string
	identity   *Identity
	cart       *entity.Cart
	wishlist   *entity.Wishlist
	rejected   []entity.LineRejection
}

// NewGuestBoundary создает сессию в состоянии Guest
// guestToken может быть пустым, если у клиента нет гостевого состояния
func NewGuestBoundary(guestToken string, deps Dependencies) *Boundary {
	return &Boundary{
		deps:       deps,
		state:      StateGuest,
		guestToken: guestToken,
	}
}

// ResumeBoundary восстанавливает уже аутентифицированную сессию (например, после перезагрузки страницы)
// Слияние для такой сессии не выполняется
func ResumeBoundary(identity *Identity, deps Dependencies) *Boundary {
	return &Boundary{
		deps:     deps,
		state:    StateAuthenticated,
		identity: identity,
	}
}

func (b *Boundary) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Login аутентифицирует пользователя и сливает гостевое состояние
func (b *Boundary) Login(ctx context.Context, creds Credentials) (*Snapshot, error) {
	return b.authenticate(ctx, creds, b.deps.Auth.Login)
}

// Register регистрирует пользователя и сливает гостевое состояние
func (b *Boundary) Register(ctx context.Context, creds Credentials) (*Snapshot, error) {
	return b.authenticate(ctx, creds, b.deps.Auth.Register)
}

func (b *Boundary) authenticate(
	ctx context.Context,
	creds Credentials,
	authFn func(ctx context.Context, creds Credentials) (*Identity, error),
) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateGuest {
		return nil, service.ErrAlreadyAuthenticated
	}

	b.transition(StateAuthenticating)
	identity, err := authFn(ctx, creds)
	if err != nil {
		b.transition(StateGuest)
		return nil, err
	}
	if identity == nil || identity.UserID <= 0 {
		b.transition(StateGuest)
		return nil, service.ErrUnauthorized
	}

	b.transition(StateMerging)
	cart, wishlist, rejected, err := b.merge(ctx, identity.UserID)
	if err != nil {
		// Authenticated не наступает: следующий вход повторит слияние с тем же снимком
		b.transition(StateGuest)
		return nil, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}

	consumed := b.guestToken != ""
	b.identity = identity
	b.cart = cart
	b.wishlist = wishlist
	b.rejected = rejected
	b.guestToken = ""
	b.transition(StateAuthenticated)

	snap := b.snapshot()
	snap.GuestTokenRevoked = consumed
	return snap, nil
}

// merge читает гостевой снимок, сливает корзину и избранное ровно по одному разу
// в одной транзакции и очищает гостевое состояние только после её фиксации.
// Ошибка любого из слияний откатывает оба, поэтому повтор со снимком ничего не удваивает.
// Блокировка по токену не дает двум параллельным входам с одним гостевым
// состоянием слить его дважды: второй увидит уже очищенный снимок
func (b *Boundary) merge(ctx context.Context, userID int64) (*entity.Cart, *entity.Wishlist, []entity.LineRejection, error) {
	var (
		cart     *entity.Cart
		wishlist *entity.Wishlist
		rejected []entity.LineRejection
	)

	run := func(ctx context.Context) error {
		var (
			lines []entity.GuestCartLine
			ids   []entity.LooseValue
			err   error
		)
		if b.guestToken != "" {
			if lines, err = b.deps.Guest.ReadCart(ctx, b.guestToken); err != nil {
				return err
			}
			if ids, err = b.deps.Guest.ReadWishlist(ctx, b.guestToken); err != nil {
				return err
			}
		}

		var (
			result *entity.MergeCartResult
			wl     *entity.Wishlist
		)
		mergeBoth := func(ctx context.Context) error {
			var err error
			if result, err = b.deps.Cart.MergeGuestCart(ctx, userID, lines); err != nil {
				return err
			}
			wl, err = b.deps.Wishlist.MergeGuestWishlist(ctx, userID, ids)
			return err
		}
		if b.deps.Tx != nil {
			err = b.deps.Tx.WithinTransaction(ctx, mergeBoth)
		} else {
			err = mergeBoth(ctx)
		}
		if err != nil {
			return err
		}

		if b.guestToken != "" {
			if err := b.deps.Guest.Clear(context.WithoutCancel(ctx), b.guestToken); err != nil {
				// Слияние уже зафиксировано; токен больше не используется,
				// остаток удалится по TTL
				logger.Error().Err(err).Int64("user_id", userID).Msg("failed to clear merged guest state")
			}
		}

		cart, wishlist, rejected = result.Cart, wl, result.Rejected
		return nil
	}

	var err error
	if b.guestToken != "" && b.deps.Locker != nil {
		err = b.deps.Locker.WithLock(ctx, "lock:guest-merge:"+b.guestToken, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	return cart, wishlist, rejected, nil
}

// Refresh перечитывает авторитетное состояние без повторного слияния
func (b *Boundary) Refresh(ctx context.Context) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateAuthenticated {
		return nil, service.ErrNotAuthenticated
	}

	cart, err := b.deps.Cart.GetCart(ctx, b.identity.UserID)
	if err != nil {
		return nil, err
	}
	wishlist, err := b.deps.Wishlist.GetWishlist(ctx, b.identity.UserID)
	if err != nil {
		return nil, err
	}

	b.cart = cart
	b.wishlist = wishlist
	b.rejected = nil

	return b.snapshot(), nil
}

// Logout завершает сессию и начинает новую пустую гостевую сессию
// Ошибка внешнего сервиса при выходе не мешает локальному сбросу
func (b *Boundary) Logout(ctx context.Context) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateAuthenticated {
		return nil, service.ErrNotAuthenticated
	}

	if err := b.deps.Auth.Logout(ctx, b.identity.AccessToken); err != nil {
		logger.Warn().Err(err).Int64("user_id", b.identity.UserID).Msg("auth service logout failed")
	}

	b.transition(StateLoggedOut)
	b.identity = nil
	b.cart = entity.NewCart(0, nil)
	b.wishlist = entity.NewWishlist(0, nil)
	b.rejected = nil
	if b.deps.NewGuestToken != nil {
		b.guestToken = b.deps.NewGuestToken()
	}
	b.transition(StateGuest)

	return b.snapshot(), nil
}

// Snapshot возвращает текущее состояние
func (b *Boundary) Snapshot() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *Boundary) snapshot() *Snapshot {
	s := &Snapshot{
		State:      b.state,
		GuestToken: b.guestToken,
		Cart:       b.cart,
		Wishlist:   b.wishlist,
		Rejected:   b.rejected,
	}
	if b.identity != nil {
		identity := *b.identity
		s.Identity = &identity
		s.UserID = identity.UserID
	}
	return s
}

func (b *Boundary) transition(to State) {
	b.state = to
	metrics.SessionTransitions.WithLabelValues(string(to)).Inc()
}
