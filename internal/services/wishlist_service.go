package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// IWishlistService keeps the buyer's saved-listing set. Backed by a Redis
// set; listing ids are opaque strings owned by the listings system.
type IWishlistService interface {
	Add(ctx context.Context, listingID string) ([]string, error)
	Remove(ctx context.Context, listingID string) ([]string, error)
	List(ctx context.Context) ([]string, error)
}

const wishlistKey = "wishlist"

// wishlistService implements IWishlistService.
type wishlistService struct {
	rdb *redis.Client
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(rdb *redis.Client) IWishlistService {
	return &wishlistService{rdb: rdb}
}

func (s *wishlistService) Add(ctx context.Context, listingID string) ([]string, error) {
	if err := s.rdb.SAdd(ctx, wishlistKey, listingID).Err(); err != nil {
		return nil, fmt.Errorf("failed to add %s to wishlist: %w", listingID, err)
	}
	return s.List(ctx)
}

func (s *wishlistService) Remove(ctx context.Context, listingID string) ([]string, error) {
	if err := s.rdb.SRem(ctx, wishlistKey, listingID).Err(); err != nil {
		return nil, fmt.Errorf("failed to remove %s from wishlist: %w", listingID, err)
	}
	return s.List(ctx)
}

func (s *wishlistService) List(ctx context.Context) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, wishlistKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read wishlist: %w", err)
	}
	// Stable order for clients; Redis sets are unordered.
	sort.Strings(members)
	return members, nil
}
