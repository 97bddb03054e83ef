// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: products and stock reservations
//   - cart.go: server carts and their lines
//   - order.go: orders and their frozen lines
package models
