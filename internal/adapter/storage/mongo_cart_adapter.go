package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/commerce-backend/internal/core/domain"
)

type MongoCartRepository struct {
	col *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{col: db.Collection("carts")}
}

// EnsureIndexes creates the unique userId index the one-cart-per-user
// rule and the upsert race detection both rely on.
func (r *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cart index: %w", err)
	}
	return nil
}

func (r *MongoCartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	var cart domain.Cart
	err = r.col.FindOne(ctx, bson.M{"userId": uid}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return &cart, nil
}

func (r *MongoCartRepository) IncrementItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false, nil
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, false, nil
	}

	filter := bson.M{"userId": uid, "items.productId": pid}
	update := bson.M{"$inc": bson.M{"items.$.quantity": quantity}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.Cart
	err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("increment cart item: %w", err)
	}
	return &cart, true, nil
}

// PushItem appends the line item, upserting the cart document when the
// user has none yet. The filter excludes carts that already hold the
// product, so a concurrent add of the same product turns the upsert
// into a duplicate-key error on the userId index; that is reported as
// ok=false for the caller to retry as an increment.
func (r *MongoCartRepository) PushItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false, nil
	}

	filter := bson.M{"userId": uid, "items.productId": bson.M{"$ne": item.ProductID}}
	update := bson.M{"$push": bson.M{"items": item}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(true)

	var cart domain.Cart
	err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if mongo.IsDuplicateKeyError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("push cart item: %w", err)
	}
	return &cart, true, nil
}

func (r *MongoCartRepository) RemoveItem(ctx context.Context, userID, itemID string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, nil
	}

	// $pull of an absent item matches the cart and changes nothing,
	// which is exactly the idempotent-delete contract.
	res, err := r.col.UpdateOne(ctx,
		bson.M{"userId": uid},
		bson.M{"$pull": bson.M{"items": bson.M{"itemId": itemID}}},
	)
	if err != nil {
		return false, fmt.Errorf("remove cart item: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoCartRepository) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, false, nil
	}

	filter := bson.M{"userId": uid, "items.itemId": itemID}
	update := bson.M{"$set": bson.M{"items.$.quantity": quantity}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var cart domain.Cart
	err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("set cart item quantity: %w", err)
	}
	return &cart, true, nil
}
