package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusAvailable marks a listing that can still be requested.
const StatusAvailable = "available"

const (
	keyStatus     = "status"
	keyQuantity   = "quantity"
	keyDonorEmail = "donor_email"
	keyUserEmail  = "user_email"
)

// Listing is a food donation stored in the foods collection.
type Listing struct {
	ID         primitive.ObjectID `json:"_id"                   bson:"_id,omitempty"`
	Status     string             `json:"status,omitempty"      bson:"status,omitempty"`
	Quantity   Quantity           `json:"quantity,omitempty"    bson:"quantity,omitempty"`
	DonorEmail string             `json:"donor_email,omitempty" bson:"donor_email,omitempty"`
	UserEmail  string             `json:"user_email,omitempty"  bson:"user_email,omitempty"`
	Extra      Fields             `json:"-"                     bson:",inline"`
}

var listingKeys = []string{keyID, keyStatus, keyQuantity, keyDonorEmail, keyUserEmail}

type listingJSON Listing

func (l Listing) MarshalJSON() ([]byte, error) {
	return mergeJSON(listingJSON(l), l.ID, l.Extra)
}

func (l *Listing) UnmarshalJSON(data []byte) error {
	var known listingJSON
	extra, err := splitJSON(data, &known, listingKeys)
	if err != nil {
		return err
	}
	*l = Listing(known)
	l.Extra = extra
	return nil
}

func (l Listing) MarshalBSON() ([]byte, error) {
	return bson.Marshal(buildDocument(l.ID, bson.D{
		{Key: keyStatus, Value: l.Status},
		{Key: keyQuantity, Value: string(l.Quantity)},
		{Key: keyDonorEmail, Value: l.DonorEmail},
		{Key: keyUserEmail, Value: l.UserEmail},
	}, l.Extra))
}

func (l *Listing) UnmarshalBSON(data []byte) error {
	id, typed, extra, err := splitBSON(data, []string{keyStatus, keyDonorEmail, keyUserEmail})
	if err != nil {
		return err
	}
	doc := Listing{
		ID:         id,
		Status:     typed[keyStatus],
		DonorEmail: typed[keyDonorEmail],
		UserEmail:  typed[keyUserEmail],
	}

	if rv, err := bson.Raw(data).LookupErr(keyQuantity); err == nil {
		var q Quantity
		if q.UnmarshalBSONValue(rv.Type, rv.Value) == nil && q != "" {
			doc.Quantity = q
			delete(extra, keyQuantity)
		}
	}
	if len(extra) > 0 {
		doc.Extra = extra
	}
	*l = doc
	return nil
}

// StatusUpdate is the JSON body for PATCH /availableFoods/{id}.
type StatusUpdate struct {
	Status *string `json:"status"`
}

// Quantity is kept as a string in the store. Numeric JSON input and numeric
// BSON values written by other clients are both accepted.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*q = Quantity(n.String())
	return nil
}

func (q *Quantity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*q = Quantity(rv.StringValue())
	case bsontype.Int32:
		*q = Quantity(strconv.FormatInt(int64(rv.Int32()), 10))
	case bsontype.Int64:
		*q = Quantity(strconv.FormatInt(rv.Int64(), 10))
	case bsontype.Double:
		*q = Quantity(strconv.FormatFloat(rv.Double(), 'f', -1, 64))
	case bsontype.Null, bsontype.Undefined:
		*q = ""
	default:
		return fmt.Errorf("quantity: cannot decode BSON %s", t)
	}
	return nil
}
