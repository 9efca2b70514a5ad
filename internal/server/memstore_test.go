package server

import (
	"context"
	"maps"
	"reflect"
	"sort"
	"strconv"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/food-nest/backend/internal/auth"
	"github.com/ayush/food-nest/backend/internal/models"
)

// memStore mirrors the MongoStore semantics in memory.
type memStore struct {
	mu       sync.Mutex
	foods    []models.Listing
	requests []models.FoodRequest
}

func cloneListing(l models.Listing) models.Listing {
	l.Extra = maps.Clone(l.Extra)
	return l
}

func (s *memStore) filterListings(keep func(models.Listing) bool) []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Listing{}
	for _, l := range s.foods {
		if keep(l) {
			out = append(out, cloneListing(l))
		}
	}
	return out
}

func (s *memStore) ListAvailable(_ context.Context) ([]models.Listing, error) {
	return s.filterListings(func(l models.Listing) bool { return l.Status == models.StatusAvailable }), nil
}

func (s *memStore) ListByDonor(_ context.Context, email string) ([]models.Listing, error) {
	return s.filterListings(func(l models.Listing) bool { return l.DonorEmail == email }), nil
}

func (s *memStore) indexOf(id string) (int, primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1, oid, err
	}
	for i, l := range s.foods {
		if l.ID == oid {
			return i, oid, nil
		}
	}
	return -1, oid, nil
}

func (s *memStore) GetListing(_ context.Context, id string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _, err := s.indexOf(id)
	if err != nil || i < 0 {
		return nil, err
	}
	l := cloneListing(s.foods[i])
	return &l, nil
}

func (s *memStore) Featured(_ context.Context, limit int) ([]models.Listing, error) {
	docs := s.filterListings(func(models.Listing) bool { return true })
	qty := make(map[primitive.ObjectID]int, len(docs))
	for _, d := range docs {
		n, err := strconv.Atoi(string(d.Quantity))
		if err != nil {
			return nil, err
		}
		qty[d.ID] = n
	}
	sort.SliceStable(docs, func(i, j int) bool { return qty[docs[i].ID] > qty[docs[j].ID] })
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *memStore) InsertListing(_ context.Context, doc *models.Listing) (*models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := cloneListing(*doc)
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	s.foods = append(s.foods, l)
	return &models.InsertResult{Acknowledged: true, InsertedID: l.ID}, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id string, status *string) (*models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	res := &models.UpdateResult{Acknowledged: true}
	if i < 0 {
		return res, nil
	}
	res.MatchedCount = 1
	next := ""
	if status != nil {
		next = *status
	}
	if s.foods[i].Status != next {
		s.foods[i].Status = next
		res.ModifiedCount = 1
	}
	return res, nil
}

func (s *memStore) UpsertListing(_ context.Context, id string, doc *models.Listing) (*models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, oid, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	res := &models.UpdateResult{Acknowledged: true}
	if i < 0 {
		l := models.Listing{ID: oid}
		setFields(&l, *doc)
		s.foods = append(s.foods, l)
		res.UpsertedCount = 1
		res.UpsertedID = oid
		return res, nil
	}

	res.MatchedCount = 1
	before := cloneListing(s.foods[i])
	setFields(&s.foods[i], *doc)
	if !reflect.DeepEqual(before, s.foods[i]) {
		res.ModifiedCount = 1
	}
	return res, nil
}

// setFields applies the fields present in src the way $set does.
func setFields(dst *models.Listing, src models.Listing) {
	if src.Status != "" {
		dst.Status = src.Status
	}
	if src.Quantity != "" {
		dst.Quantity = src.Quantity
	}
	if src.DonorEmail != "" {
		dst.DonorEmail = src.DonorEmail
	}
	if src.UserEmail != "" {
		dst.UserEmail = src.UserEmail
	}
	if len(src.Extra) > 0 {
		dst.Extra = maps.Clone(dst.Extra)
		if dst.Extra == nil {
			dst.Extra = models.Fields{}
		}
		maps.Copy(dst.Extra, src.Extra)
	}
}

func (s *memStore) DeleteListing(_ context.Context, id string) (*models.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, _, err := s.indexOf(id)
	if err != nil {
		return nil, err
	}
	res := &models.DeleteResult{Acknowledged: true}
	if i >= 0 {
		s.foods = append(s.foods[:i], s.foods[i+1:]...)
		res.DeletedCount = 1
	}
	return res, nil
}

func (s *memStore) ListRequests(_ context.Context) ([]models.FoodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FoodRequest{}, s.requests...), nil
}

func (s *memStore) ListRequestsByUser(_ context.Context, email string) ([]models.FoodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FoodRequest{}
	for _, r := range s.requests {
		if r.UserEmail == email {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) InsertRequest(_ context.Context, doc *models.FoodRequest) (*models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *doc
	r.ID = primitive.NewObjectID()
	s.requests = append(s.requests, r)
	return &models.InsertResult{Acknowledged: true, InsertedID: r.ID}, nil
}

type tokenVerifier map[string]string

func (v tokenVerifier) Verify(_ context.Context, token string) (*auth.Claims, error) {
	email, ok := v[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{Subject: "uid-" + email, Email: email}, nil
}
