package storage

import (
	"go.mongodb.org/mongo-driver/bson"
)

// sanitizeDocument converts a model into a bson document with every
// nil-valued field stripped, recursively. The document store rejects
// undefined values; defined falsy values like 0, false and "" must survive.
func sanitizeDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return sanitizeMap(doc), nil
}

func sanitizeMap(doc bson.M) bson.M {
	for k, v := range doc {
		switch val := v.(type) {
		case nil:
			delete(doc, k)
		case bson.M:
			doc[k] = sanitizeMap(val)
		case bson.A:
			doc[k] = sanitizeArray(val)
		}
	}
	return doc
}

func sanitizeArray(arr bson.A) bson.A {
	for i, v := range arr {
		switch val := v.(type) {
		case bson.M:
			arr[i] = sanitizeMap(val)
		case bson.A:
			arr[i] = sanitizeArray(val)
		}
	}
	return arr
}
