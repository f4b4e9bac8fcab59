package store

// doc.go holds BSON document extraction helpers shared by the collection
// stores. Ingestion-critical collections (students, exam results) are read
// via bson.M and mapped by hand so documents written by older tooling still
// decode; see timestamps.go for the temporal shapes involved.

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func getString(doc bson.M, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func getTime(doc bson.M, key string) time.Time {
	if t, ok := NormalizeTime(doc[key]); ok {
		return t
	}
	return time.Time{}
}

// getFloat extracts a numeric BSON value (int32, int64, or double).
func getFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
