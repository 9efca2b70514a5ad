package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FoodRequest is a user's claim on a listing, stored in the requestedFood
// collection.
type FoodRequest struct {
	ID        primitive.ObjectID `json:"_id"                  bson:"_id,omitempty"`
	UserEmail string             `json:"user_email,omitempty" bson:"user_email,omitempty"`
	Extra     Fields             `json:"-"                    bson:",inline"`
}

var requestKeys = []string{keyID, keyUserEmail}

type requestJSON FoodRequest

func (r FoodRequest) MarshalJSON() ([]byte, error) {
	return mergeJSON(requestJSON(r), r.ID, r.Extra)
}

func (r *FoodRequest) UnmarshalJSON(data []byte) error {
	var known requestJSON
	extra, err := splitJSON(data, &known, requestKeys)
	if err != nil {
		return err
	}
	*r = FoodRequest(known)
	r.Extra = extra
	return nil
}

func (r FoodRequest) MarshalBSON() ([]byte, error) {
	return bson.Marshal(buildDocument(r.ID, bson.D{{Key: keyUserEmail, Value: r.UserEmail}}, r.Extra))
}

func (r *FoodRequest) UnmarshalBSON(data []byte) error {
	id, typed, extra, err := splitBSON(data, []string{keyUserEmail})
	if err != nil {
		return err
	}
	*r = FoodRequest{ID: id, UserEmail: typed[keyUserEmail], Extra: extra}
	return nil
}
