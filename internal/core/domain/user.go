package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account types. Catalog mutations are limited to admins and sellers;
// admins may mutate any product, sellers only their own.
const (
	RoleAdmin    = "Admin"
	RoleSeller   = "Seller"
	RoleCustomer = "Customer"
)

// User carries no credential material. Token issuance and password
// handling live in a separate identity service; this API only verifies
// bearer tokens.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"userId"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	UserType  string             `bson:"userType" json:"userType"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
