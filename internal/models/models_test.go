package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListing_UnmarshalJSON_KeepsUnknownFields(t *testing.T) {
	body := `{"food_name":"Rice","quantity":"12","status":"available","donor_email":"d@x.com","pickup":{"city":"Dhaka","slots":[1,2.5]}}`

	var l Listing
	require.NoError(t, json.Unmarshal([]byte(body), &l))

	assert.True(t, l.ID.IsZero())
	assert.Equal(t, "available", l.Status)
	assert.Equal(t, Quantity("12"), l.Quantity)
	assert.Equal(t, "d@x.com", l.DonorEmail)
	assert.Equal(t, "Rice", l.Extra["food_name"])

	pickup, ok := l.Extra["pickup"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Dhaka", pickup["city"])
	assert.Equal(t, []any{int64(1), 2.5}, pickup["slots"])
	assert.NotContains(t, l.Extra, "status")
}

func TestListing_UnmarshalJSON_MatchesKeysExactly(t *testing.T) {
	body := `{"Status":"available","QUANTITY":"4","Donor_Email":"d@x.com","food_name":"x"}`

	var l Listing
	require.NoError(t, json.Unmarshal([]byte(body), &l))

	assert.Empty(t, l.Status)
	assert.Empty(t, l.Quantity)
	assert.Empty(t, l.DonorEmail)
	assert.Equal(t, Fields{"Status": "available", "QUANTITY": "4", "Donor_Email": "d@x.com", "food_name": "x"}, l.Extra)

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(b))

	raw, err := bson.Marshal(l)
	require.NoError(t, err)
	_, err = bson.Raw(raw).LookupErr("status")
	assert.Error(t, err)
	assert.Equal(t, "available", bson.Raw(raw).Lookup("Status").StringValue())
}

func TestListing_BlankTypedFieldsAreKept(t *testing.T) {
	var l Listing
	require.NoError(t, json.Unmarshal([]byte(`{"status":"","user_email":null,"quantity":"2"}`), &l))

	assert.Empty(t, l.Status)
	assert.Equal(t, Fields{"status": "", "user_email": nil}, l.Extra)

	raw, err := bson.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, "", bson.Raw(raw).Lookup("status").StringValue())
	assert.Equal(t, bson.TypeNull, bson.Raw(raw).Lookup("user_email").Type)
	assert.Equal(t, "2", bson.Raw(raw).Lookup("quantity").StringValue())

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"","user_email":null,"quantity":"2"}`, string(b))
}

func TestListing_UnmarshalBSON_KeepsNonStringFields(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: "legacy-id"},
		{Key: "status", Value: true},
		{Key: "user_email", Value: "u@x.com"},
		{Key: "quantity", Value: bson.A{1}},
	})
	require.NoError(t, err)

	var l Listing
	require.NoError(t, bson.Unmarshal(raw, &l))
	assert.True(t, l.ID.IsZero())
	assert.Equal(t, "u@x.com", l.UserEmail)
	assert.Empty(t, l.Status)
	assert.Empty(t, l.Quantity)
	assert.Equal(t, Fields{"_id": "legacy-id", "status": true, "quantity": bson.A{int32(1)}}, l.Extra)

	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"legacy-id","status":true,"user_email":"u@x.com","quantity":[1]}`, string(b))
}

func TestListing_MarshalJSON(t *testing.T) {
	t.Run("new_listing_has_no_id", func(t *testing.T) {
		l := Listing{Status: StatusAvailable, Extra: Fields{"food_name": "Bread"}}
		b, err := json.Marshal(l)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"available","food_name":"Bread"}`, string(b))
	})

	t.Run("stored_listing_carries_hex_id", func(t *testing.T) {
		id := primitive.NewObjectID()
		l := Listing{ID: id, Quantity: "3", UserEmail: "u@x.com"}
		b, err := json.Marshal(l)
		require.NoError(t, err)
		assert.JSONEq(t, `{"_id":"`+id.Hex()+`","quantity":"3","user_email":"u@x.com"}`, string(b))
	})

	t.Run("typed_field_wins_over_extra", func(t *testing.T) {
		l := Listing{Status: "requested", Extra: Fields{"status": "available"}}
		b, err := json.Marshal(l)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"requested"}`, string(b))
	})
}

func TestQuantity_UnmarshalJSON_AcceptsNumbers(t *testing.T) {
	var l Listing
	require.NoError(t, json.Unmarshal([]byte(`{"quantity":20}`), &l))
	assert.Equal(t, Quantity("20"), l.Quantity)

	err := json.Unmarshal([]byte(`{"quantity":true}`), &l)
	require.Error(t, err)
}

func TestListing_BSONInlinesExtraFields(t *testing.T) {
	id := primitive.NewObjectID()
	in := Listing{ID: id, Status: StatusAvailable, Quantity: "7", Extra: Fields{"food_name": "Dal"}}

	raw, err := bson.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, "Dal", bson.Raw(raw).Lookup("food_name").StringValue())
	assert.Equal(t, "7", bson.Raw(raw).Lookup("quantity").StringValue())

	var out Listing
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.Equal(t, id, out.ID)
	assert.Equal(t, "Dal", out.Extra["food_name"])
}

func TestQuantity_UnmarshalBSONValue_AcceptsNumbers(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value any
		want  Quantity
	}{
		{name: "string", value: "5", want: "5"},
		{name: "int32", value: int32(10), want: "10"},
		{name: "int64", value: int64(42), want: "42"},
		{name: "double", value: 2.5, want: "2.5"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.D{{Key: "quantity", Value: tc.value}})
			require.NoError(t, err)

			var l Listing
			require.NoError(t, bson.Unmarshal(raw, &l))
			assert.Equal(t, tc.want, l.Quantity)
		})
	}
}

func TestFoodRequest_MixedCaseKeyStaysExtra(t *testing.T) {
	var r FoodRequest
	require.NoError(t, json.Unmarshal([]byte(`{"User_Email":"a@x.com"}`), &r))
	assert.Empty(t, r.UserEmail)
	assert.Equal(t, Fields{"User_Email": "a@x.com"}, r.Extra)

	raw, err := bson.Marshal(r)
	require.NoError(t, err)
	var back FoodRequest
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, r, back)
}

func TestFoodRequest_RoundTripsThroughJSON(t *testing.T) {
	body := `{"user_email":"a@x.com","food_id":"abc","request_date":"2025-06-01"}`

	var r FoodRequest
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	assert.Equal(t, "a@x.com", r.UserEmail)
	assert.Equal(t, Fields{"food_id": "abc", "request_date": "2025-06-01"}, r.Extra)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(b))
}
