package refdata

import (
	"github.com/dalemusser/refhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// Entries travel between the untyped document and typed structs through the
// BSON codec, so the struct tags in models are the single field mapping.

func decodeEntry[E any](m map[string]any) (E, error) {
	var out E
	b, err := bson.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := bson.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

func encodeEntry[E any](e *E) (map[string]any, error) {
	b, err := bson.Marshal(e)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	out, _ := models.Normalize(map[string]any(m)).(map[string]any)
	return out, nil
}
