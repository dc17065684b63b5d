package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/repository"
)

var errStoreDown = errors.New("store down")

// fakeStore - хранилище в памяти с транзакциями через снимок состояния
// Реализует CartRepository, WishlistRepository, ProductRepository и Transactor
type fakeStore struct {
	mu       sync.Mutex
	products map[int64]entity.Product
	lines    []entity.CartLine
	wishlist []entity.WishlistEntry
	nextID   int64
	clock    time.Time

	upserts     int
	failUpsert  int // номер вызова UpsertLine (с 1), который вернет ошибку; 0 - без ошибок
	failExisted bool
	failGet     bool
}

func newFakeStore(productIDs ...int64) *fakeStore {
	s := &fakeStore{
		products: make(map[int64]entity.Product),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range productIDs {
		s.products[id] = entity.Product{ID: id, Title: "Tape", PriceRaw: "$1.00", Images: []string{"tape.jpg"}}
	}
	return s
}

func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// WithinTransaction откатывает состояние, если fn вернула ошибку
func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	lines := append([]entity.CartLine(nil), s.lines...)
	wishlist := append([]entity.WishlistEntry(nil), s.wishlist...)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.lines, s.wishlist, s.nextID = lines, wishlist, nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

// ==================== ProductRepository ====================

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *fakeStore) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failExisted {
		return nil, errStoreDown
	}
	existing := make(map[int64]bool)
	for _, id := range ids {
		if _, ok := s.products[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

// ==================== CartRepository ====================

func (s *fakeStore) UpsertLine(ctx context.Context, line *entity.CartLine) (*entity.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upserts++
	if s.failUpsert > 0 && s.upserts == s.failUpsert {
		return nil, errStoreDown
	}
	if _, ok := s.products[line.ProductID]; !ok {
		return nil, repository.ErrForeignKey
	}

	key := line.VariantKey()
	for i := range s.lines {
		if s.lines[i].UserID == line.UserID && s.lines[i].VariantKey() == key {
			s.lines[i].Quantity = min(s.lines[i].Quantity+line.Quantity, entity.MaxLineQuantity)
			s.lines[i].UpdatedAt = s.tick()
			result := s.lines[i]
			return &result, nil
		}
	}

	s.nextID++
	inserted := *line
	inserted.ID = s.nextID
	inserted.CreatedAt = s.tick()
	inserted.UpdatedAt = inserted.CreatedAt
	s.lines = append(s.lines, inserted)
	return &inserted, nil
}

func (s *fakeStore) GetLine(ctx context.Context, lineID, userID int64) (*entity.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.ID == lineID && l.UserID == userID {
			line := l
			return &line, nil
		}
	}
	return nil, repository.ErrLineNotFound
}

func (s *fakeStore) IncrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	return s.updateLine(lineID, userID, func(l *entity.CartLine) bool {
		if l.Quantity >= entity.MaxLineQuantity {
			return false
		}
		l.Quantity++
		return true
	}), nil
}

func (s *fakeStore) DecrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	return s.updateLine(lineID, userID, func(l *entity.CartLine) bool {
		if l.Quantity <= 1 {
			return false
		}
		l.Quantity--
		return true
	}), nil
}

func (s *fakeStore) updateLine(lineID, userID int64, fn func(l *entity.CartLine) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ID == lineID && s.lines[i].UserID == userID {
			return fn(&s.lines[i])
		}
	}
	return false
}

func (s *fakeStore) DeleteLine(ctx context.Context, lineID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.lines {
		if l.ID == lineID && l.UserID == userID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lines[:0]
	var deleted int64
	for _, l := range s.lines {
		if l.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	return deleted, nil
}

func (s *fakeStore) GetCart(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	items := make([]entity.CartItem, 0)
	for _, l := range s.lines {
		if l.UserID != userID {
			continue
		}
		p := s.products[l.ProductID]
		items = append(items, entity.CartItem{CartLine: l, Title: p.Title, PriceRaw: p.PriceRaw, Images: p.Images})
	}
	return items, nil
}

// ==================== WishlistRepository ====================

func (s *fakeStore) Add(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return false, repository.ErrForeignKey
	}
	for _, e := range s.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			return false, nil
		}
	}
	s.wishlist = append(s.wishlist, entity.WishlistEntry{UserID: userID, ProductID: productID, CreatedAt: s.tick()})
	return true, nil
}

func (s *fakeStore) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			s.wishlist = append(s.wishlist[:i], s.wishlist[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetWishlist(ctx context.Context, userID int64) ([]entity.WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	items := make([]entity.WishlistItem, 0)
	for _, e := range s.wishlist {
		if e.UserID != userID {
			continue
		}
		p := s.products[e.ProductID]
		items = append(items, entity.WishlistItem{ProductID: e.ProductID, Title: p.Title, PriceRaw: p.PriceRaw, Images: p.Images, AddedAt: e.CreatedAt})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].AddedAt.After(items[j].AddedAt) })
	return items, nil
}
