package handlers

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// fakeWishlistService keeps the set in memory; the Redis-backed service is
// covered by the wiring, not here.
type fakeWishlistService struct {
	items map[string]bool
}

func newFakeWishlistService() *fakeWishlistService {
	return &fakeWishlistService{items: make(map[string]bool)}
}

func (s *fakeWishlistService) Add(ctx context.Context, listingID string) ([]string, error) {
	s.items[listingID] = true
	return s.List(ctx)
}

func (s *fakeWishlistService) Remove(ctx context.Context, listingID string) ([]string, error) {
	delete(s.items, listingID)
	return s.List(ctx)
}

func (s *fakeWishlistService) List(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(s.items))
	for id := range s.items {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func newWishlistRouter(svc *fakeWishlistService) *gin.Engine {
	h := NewRestWishlistHandler(svc)
	r := gin.New()
	r.GET("/wishlist", h.GetWishlist)
	r.POST("/wishlist", h.UpdateWishlist)
	return r
}

func TestRestWishlistHandler_AddRemove(t *testing.T) {
	r := newWishlistRouter(newFakeWishlistService())

	w := doJSON(t, r, http.MethodPost, "/wishlist", gin.H{"listingId": "lst_1", "action": "add"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wishlist":["lst_1"]}`, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/wishlist", gin.H{"listingId": "lst_1", "action": "remove"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wishlist":[]}`, w.Body.String())
}

func TestRestWishlistHandler_UnknownAction(t *testing.T) {
	r := newWishlistRouter(newFakeWishlistService())

	w := doJSON(t, r, http.MethodPost, "/wishlist", gin.H{"listingId": "lst_1", "action": "toggle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestWishlistHandler_Get(t *testing.T) {
	svc := newFakeWishlistService()
	svc.items["lst_2"] = true
	r := newWishlistRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/wishlist", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wishlist":["lst_2"]}`, w.Body.String())
}
