// internal/domain/history/entity.go
package history

import "time"

// MaxEntries is how many recent searches are kept per agency.
const MaxEntries = 10

// Entry is one remembered serial search.
type Entry struct {
	Agency     string    `json:"agency"`
	Term       string    `json:"term"`
	SearchedAt time.Time `json:"searched_at"`
}
