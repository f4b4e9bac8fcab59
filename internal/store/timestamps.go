package store

// timestamps.go normalizes temporal values read back from the document
// store. Depending on how a document was written (native insert, migration
// tooling, or an export/import round trip) a timestamp field may arrive as a
// BSON datetime, a raw epoch-seconds number, or an embedded
// {"_seconds": n} shape. All of them must decode to the same time.Time.

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeTime converts any supported stored representation to a time.Time.
// The second return is false when the value carries no usable timestamp.
func NormalizeTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time(), true
	case time.Time:
		return v, true
	case int64:
		return time.Unix(v, 0), true
	case int32:
		return time.Unix(int64(v), 0), true
	case float64:
		return time.Unix(int64(v), 0), true
	case bson.M:
		return secondsField(v)
	case map[string]interface{}:
		return secondsField(bson.M(v))
	case bson.D:
		return secondsField(v.Map())
	default:
		return time.Time{}, false
	}
}

// secondsField extracts an epoch-seconds member from an embedded document.
func secondsField(doc bson.M) (time.Time, bool) {
	for _, key := range []string{"_seconds", "seconds"} {
		if raw, ok := doc[key]; ok {
			switch n := raw.(type) {
			case int64:
				return time.Unix(n, 0), true
			case int32:
				return time.Unix(int64(n), 0), true
			case float64:
				return time.Unix(int64(n), 0), true
			}
		}
	}
	return time.Time{}, false
}
