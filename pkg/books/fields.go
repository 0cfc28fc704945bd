package books

import (
	"time"

	"github.com/google/uuid"
)

// bookColumns is the set of writable columns on books. Field maps coming in
// from callers are filtered against it so unknown keys and the primary key
// are silently dropped rather than spliced into SQL.
var bookColumns = map[string]bool{
	"book_uuid":        true,
	"title":            true,
	"isbn":             true,
	"publisher":        true,
	"genre":            true,
	"language":         true,
	"format":           true,
	"location":         true,
	"description":      true,
	"notes":            true,
	"rating":           true,
	"pages":            true,
	"read":             true,
	"signed":           true,
	"anthology":        true,
	"date_published":   true,
	"read_start":       true,
	"read_end":         true,
	"remote_id":        true,
	"date_added":       true,
	"last_update_date": true,
}

// sanitizeFields filters a caller field map down to writable columns and
// fills defaults. Creates get a UUID and an added date when the caller left
// them unset; every write bumps last_update_date.
func sanitizeFields(fields map[string]interface{}, isCreate bool) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range fields {
		if bookColumns[k] {
			out[k] = v
		}
	}

	now := time.Now()
	if isCreate {
		if v, ok := out["book_uuid"]; !ok || v == "" {
			out["book_uuid"] = uuid.New().String()
		}
		if _, ok := out["date_added"]; !ok {
			out["date_added"] = now
		}
	}
	out["last_update_date"] = now

	return out
}
