// Package models contains the persistence records of the warranty service.
//
// Catalog and directory state is stored as JSON arrays under a handful of
// named keys (products, productInstances, warrantyRegistrations, admins,
// adminSession). Records here define that JSON shape and convert to and
// from domain types, so the domain layer stays free of storage tags.
// KVEntryModel is the GORM row that holds one key when the SQL backend is used.
package models
