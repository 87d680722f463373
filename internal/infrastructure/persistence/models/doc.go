// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - account.go: accounts, catalog products and customers
// - invoicing.go: documents, document lines and document history
// - subscription.go: packages and subscription records
//
// Timestamps are written in UTC so range predicates compare correctly on
// every supported driver.
package models
