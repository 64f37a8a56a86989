// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
//   - base.go: BaseModel shared by companies and documents, with a create hook
//     that fills a missing ID and timestamps
//   - document.go: companies, documents and document items
//
// Repositories use these models for database operations and map them back to
// the document aggregate.
package models
