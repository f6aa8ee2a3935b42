package planner

import "strconv"

// collectionKey renders a collection ID the way journal.Record keys
// collection_export_names (JSON object keys are always strings).
func collectionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseCollectionKey is the inverse of collectionKey. A malformed key
// (which should never occur for a journal this package wrote) parses as 0
// and is harmless: it will simply fail to match any real collection.
func parseCollectionKey(key string) int64 {
	id, _ := strconv.ParseInt(key, 10, 64)
	return id
}
