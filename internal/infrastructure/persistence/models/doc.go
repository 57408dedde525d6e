// Package models contains GORM persistence models that map to database tables.
// Domain aggregates carry no ORM tags; each model converts to and from the
// aggregate's persisted form.
package models
