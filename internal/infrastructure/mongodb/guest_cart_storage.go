package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/cart"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/domain/catalog"
)

// guestCartDoc is one guest cart, keyed by its token
type guestCartDoc struct {
	Token     string         `bson:"_id"`
	Items     []guestItemDoc `bson:"items"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// guestItemDoc stores prices as strings; decimal.Decimal has no BSON codec
type guestItemDoc struct {
	ProductID  string `bson:"product_id"`
	Title      string `bson:"title"`
	Image      string `bson:"image,omitempty"`
	Price      string `bson:"price"`
	SalePrice  string `bson:"sale_price"`
	TotalStock int    `bson:"total_stock"`
	Quantity   int    `bson:"quantity"`
}

// GuestCartStorage keeps guest carts in a MongoDB collection.
// A TTL index on updated_at removes carts that were not touched for ttl.
type GuestCartStorage struct {
	collection *mongo.Collection
	ttl        time.Duration
	now        func() time.Time
}

// NewGuestCartStorage creates storage on collection
func NewGuestCartStorage(collection *mongo.Collection, ttl time.Duration) *GuestCartStorage {
	return &GuestCartStorage{collection: collection, ttl: ttl, now: time.Now}
}

// CreateIndexes installs the expiry index
func (s *GuestCartStorage) CreateIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create guest cart indexes: %w", err)
	}
	return nil
}

// Load returns the items stored for token, or an empty list
func (s *GuestCartStorage) Load(ctx context.Context, token string) ([]cart.LocalItem, error) {
	var doc guestCartDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []cart.LocalItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	items := make([]cart.LocalItem, 0, len(doc.Items))
	for _, d := range doc.Items {
		item, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("corrupt guest cart %s: %w", token, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Save replaces the items stored for token. An empty list deletes the document.
func (s *GuestCartStorage) Save(ctx context.Context, token string, items []cart.LocalItem) error {
	if len(items) == 0 {
		return s.Delete(ctx, token)
	}
	docs := make([]guestItemDoc, len(items))
	for i, it := range items {
		docs[i] = guestItemFromDomain(it)
	}

	update := bson.M{"$set": bson.M{"items": docs, "updated_at": s.now().UTC()}}
	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": token}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save guest cart: %w", err)
	}
	return nil
}

// Delete removes the guest cart
func (s *GuestCartStorage) Delete(ctx context.Context, token string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}

func guestItemFromDomain(it cart.LocalItem) guestItemDoc {
	return guestItemDoc{
		ProductID:  it.Product.ProductID.String(),
		Title:      it.Product.Title,
		Image:      it.Product.Image,
		Price:      it.Product.Price.String(),
		SalePrice:  it.Product.SalePrice.String(),
		TotalStock: it.Product.TotalStock,
		Quantity:   it.Qty,
	}
}

func (d guestItemDoc) toDomain() (cart.LocalItem, error) {
	id, err := uuid.Parse(d.ProductID)
	if err != nil {
		return cart.LocalItem{}, err
	}
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return cart.LocalItem{}, err
	}
	sale := decimal.Zero
	if d.SalePrice != "" {
		if sale, err = decimal.NewFromString(d.SalePrice); err != nil {
			return cart.LocalItem{}, err
		}
	}
	return cart.NewLocalItem(catalog.ProductSnapshot{
		ProductID:  id,
		Title:      d.Title,
		Image:      d.Image,
		Price:      price,
		SalePrice:  sale,
		TotalStock: d.TotalStock,
	}, d.Quantity), nil
}

// Ensure GuestCartStorage implements cart.GuestCartStorage
var _ cart.GuestCartStorage = (*GuestCartStorage)(nil)
