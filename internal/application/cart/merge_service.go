package cart

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/shared"
)

// MergeConfig tunes the merge guard
type MergeConfig struct {
	// Bucket is the width of the time window folded into the merge key
	Bucket time.Duration
	// KeyTTL is how long a claimed merge key is held
	KeyTTL time.Duration
}

// DefaultMergeConfig returns a 10 minute bucket held for two buckets
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		Bucket: 10 * time.Minute,
		KeyTTL: 20 * time.Minute,
	}
}

// MergeService folds a guest cart into the authenticated user's cart.
// A server-side key over (user, guest signature, time bucket) makes a
// repeated merge of the same payload a no-op.
type MergeService struct {
	cartRepo     cart.CartRepository
	productRepo  catalog.ProductRepository
	idempotency  shared.IdempotencyStore
	guestStorage cart.GuestCartStorage
	carts        *CartService
	publisher    shared.EventPublisher
	config       MergeConfig
	now          func() time.Time
	logger       *zap.Logger
}

// NewMergeService creates a new MergeService. guestStorage may be nil when
// guest carts live only on the client.
func NewMergeService(
	cartRepo cart.CartRepository,
	productRepo catalog.ProductRepository,
	idempotency shared.IdempotencyStore,
	guestStorage cart.GuestCartStorage,
	carts *CartService,
	config MergeConfig,
	logger *zap.Logger,
) *MergeService {
	if config.Bucket <= 0 {
		config.Bucket = DefaultMergeConfig().Bucket
	}
	// the previous bucket's key is consulted, so it must outlive that bucket
	if config.KeyTTL < 2*config.Bucket {
		config.KeyTTL = 2 * config.Bucket
	}
	return &MergeService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		idempotency:  idempotency,
		guestStorage: guestStorage,
		carts:        carts,
		config:       config,
		now:          time.Now,
		logger:       logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *MergeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// MergeKey derives the idempotency key of a merge
func MergeKey(userID uuid.UUID, signature string, at time.Time, bucket time.Duration) string {
	slot := at.UnixNano() / int64(bucket)
	sum := sha256.Sum256([]byte(userID.String() + "|" + signature + "|" + strconv.FormatInt(slot, 10)))
	return "cart-merge:" + hex.EncodeToString(sum[:])
}

// Merge folds req into the cart of userID. Quantities of products present in
// both carts add up. On failure the key is released and the guest cart is left intact.
func (s *MergeService) Merge(ctx context.Context, userID uuid.UUID, req MergeRequest) (*MergeResult, error) {
	items, err := s.guestItems(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		view, err := s.carts.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &MergeResult{Cart: view, Signature: ""}, nil
	}

	signature := cart.Signature(items)
	now := s.now()
	key := MergeKey(userID, signature, now, s.config.Bucket)

	claimed, err := s.claim(ctx, key, MergeKey(userID, signature, now.Add(-s.config.Bucket), s.config.Bucket))
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Info("duplicate cart merge ignored",
			zap.String("user_id", userID.String()),
			zap.String("signature", signature),
		)
		view, err := s.carts.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &MergeResult{Cart: view, Signature: signature, Duplicate: true}, nil
	}

	result, err := s.apply(ctx, userID, items)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger.Error("failed to release cart merge key",
				zap.String("user_id", userID.String()),
				zap.Error(relErr),
			)
		}
		s.logger.Warn("cart merge failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	result.Signature = signature

	if req.GuestToken != "" && s.guestStorage != nil {
		if err := s.guestStorage.Delete(ctx, req.GuestToken); err != nil {
			s.logger.Warn("merged but could not clear guest cart",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	view, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Cart = view

	s.logger.Info("cart merged",
		zap.String("user_id", userID.String()),
		zap.Int("inserted", result.Inserted),
		zap.Int("increased", result.Increased),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// claim takes key unless the same merge already ran in the previous bucket.
// Without the look-back a retry a second after a bucket boundary would get a
// fresh key and merge the guest cart twice.
func (s *MergeService) claim(ctx context.Context, key, previous string) (bool, error) {
	seen, err := s.idempotency.IsProcessed(ctx, previous)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}
	return s.idempotency.MarkProcessed(ctx, key, s.config.KeyTTL)
}

func (s *MergeService) apply(ctx context.Context, userID uuid.UUID, items []cart.Item) (*MergeResult, error) {
	products, err := s.productRepo.FindByIDs(ctx, cart.ProductIDs(items))
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	accepted := make([]cart.Item, 0, len(items))
	var skipped []uuid.UUID
	for _, it := range items {
		if _, ok := known[it.ProductID()]; !ok {
			skipped = append(skipped, it.ProductID())
			continue
		}
		accepted = append(accepted, it)
	}

	c, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if c, err = cart.NewCart(userID); err != nil {
			return nil, err
		}
	}

	res := c.Merge(accepted)
	if res.Inserted+res.Increased > 0 {
		if err := s.cartRepo.Save(ctx, c); err != nil {
			return nil, err
		}
		s.carts.Invalidate(ctx, userID)
		s.publishEvents(ctx, c)
	}

	return &MergeResult{
		Inserted:  res.Inserted,
		Increased: res.Increased,
		Skipped:   skipped,
	}, nil
}

// guestItems returns the request lines, or the stored guest cart when only a token is given
func (s *MergeService) guestItems(ctx context.Context, req MergeRequest) ([]cart.Item, error) {
	if len(req.Items) > 0 {
		return req.toItems(), nil
	}
	if req.GuestToken == "" || s.guestStorage == nil {
		return nil, nil
	}
	stored, err := s.guestStorage.Load(ctx, req.GuestToken)
	if err != nil {
		return nil, err
	}
	items := make([]cart.Item, 0, len(stored))
	for _, it := range stored {
		items = append(items, it)
	}
	return items, nil
}

func (s *MergeService) publishEvents(ctx context.Context, c *cart.Cart) {
	events := c.GetDomainEvents()
	c.ClearDomainEvents()
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish cart events", zap.Error(err))
	}
}
