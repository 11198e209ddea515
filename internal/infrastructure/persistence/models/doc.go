// Package models contains GORM persistence models for the remote data service.
// Domain entities carry no ORM tags; repositories convert with ToDomain and
// the XModelFromDomain constructors.
package models
