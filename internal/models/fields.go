package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const keyID = "_id"

// Fields holds every document field that has no typed slot. It is inlined
// into BSON and merged into the top level of the JSON form.
//
// A typed slot only ever holds a non-empty string found under its exact key.
// Empty strings, nulls and values of any other BSON type stay in Fields
// under their original key, so they are written back unchanged.
type Fields map[string]any

// mergeJSON marshals the typed part of a document and folds extra into it.
// A zero id is dropped so new documents serialize without an _id.
func mergeJSON(known any, id primitive.ObjectID, extra Fields) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}

	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if id.IsZero() {
		delete(out, keyID)
	}

	for k, v := range extra {
		if _, ok := out[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

// splitJSON decodes the values found under the exact knownKeys into known
// and returns every other field. Blank known values are kept in the result
// as well.
func splitJSON(data []byte, known any, knownKeys []string) (Fields, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	typed := make(map[string]json.RawMessage, len(knownKeys))
	extra := Fields{}
	for k, raw := range all {
		if slices.Contains(knownKeys, k) {
			typed[k] = raw
			if k == keyID || !isBlankJSON(raw) {
				continue
			}
		}
		v, err := decodeJSONValue(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		extra[k] = v
	}

	b, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, known); err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

func isBlankJSON(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return bytes.Equal(v, []byte(`""`)) || bytes.Equal(v, []byte("null"))
}

func decodeJSONValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumber(v), nil
}

// normalizeNumber turns json.Number values into int64 when they are whole
// and float64 otherwise, so they are stored as BSON numbers and not strings.
func normalizeNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumber(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumber(inner)
		}
		return t
	default:
		return v
	}
}

// buildDocument lays out a stored document: the id when set, the non-empty
// typed fields, then the extra fields in key order.
func buildDocument(id primitive.ObjectID, typed bson.D, extra Fields) bson.D {
	doc := make(bson.D, 0, 1+len(typed)+len(extra))
	seen := make(map[string]bool, len(typed)+1)
	if !id.IsZero() {
		doc = append(doc, bson.E{Key: keyID, Value: id})
		seen[keyID] = true
	}
	for _, e := range typed {
		if e.Value == "" {
			continue
		}
		doc = append(doc, e)
		seen[e.Key] = true
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if seen[k] {
			continue
		}
		doc = append(doc, bson.E{Key: k, Value: extra[k]})
	}
	return doc
}

// splitBSON decodes a stored document, lifting an ObjectID _id and the
// non-empty string values of stringKeys out of the returned fields.
func splitBSON(data []byte, stringKeys []string) (primitive.ObjectID, map[string]string, Fields, error) {
	var all bson.M
	if err := bson.Unmarshal(data, &all); err != nil {
		return primitive.NilObjectID, nil, nil, err
	}

	var id primitive.ObjectID
	if oid, ok := all[keyID].(primitive.ObjectID); ok {
		id = oid
		delete(all, keyID)
	}

	typed := make(map[string]string, len(stringKeys))
	for _, k := range stringKeys {
		if s, ok := all[k].(string); ok && s != "" {
			typed[k] = s
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return id, typed, nil, nil
	}
	return id, typed, Fields(all), nil
}
