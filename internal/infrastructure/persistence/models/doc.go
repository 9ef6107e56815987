// Package models holds the GORM table mappings for batches and the product
// catalog. The domain structs carry no ORM tags; repositories convert with
// ToDomain and FromDomain at the boundary.
package models
