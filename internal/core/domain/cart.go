package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is the single merge target for a user's item operations. One
// cart per user; uniqueness is enforced by a unique index on userId.
type Cart struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"cartId"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Items  []CartItem         `bson:"items" json:"items"`
}

// CartItem is one line item. ProductID is unique within a cart's items;
// adding the same product again merges quantities instead of appending.
type CartItem struct {
	ID        string             `bson:"itemId" json:"itemId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Find returns the line item with the given id, or nil.
func (c *Cart) Find(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindProduct returns the line item for the given product, or nil.
func (c *Cart) FindProduct(productID primitive.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
