// Package models holds the entities of the service and the shapes they take
// on the wire.
package models

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// InternalStatsResponse is the body of GET /api/internal/stats.
type InternalStatsResponse struct {
	Users int64 `json:"users"`
	Posts int64 `json:"posts"`
}
