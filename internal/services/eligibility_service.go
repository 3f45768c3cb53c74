package services

import (
	"context"
	"fmt"

	"trailbook/internal/storage"
)

// EligibilityResult is the outcome of a trail-connection eligibility check.
// ReflectionCount sums both directions; Reasons is empty when eligible.
type EligibilityResult struct {
	Eligible        bool     `json:"eligible"`
	MutualAlbumIDs  []uint   `json:"mutualAlbumIds"`
	ReflectionCount int      `json:"reflectionCount"`
	Reasons         []string `json:"reasons"`
}

// EligibilityService decides whether two users qualify for a trail
// connection. It is a pure read over favorite and reflection edges: callers
// persist the outcome, the engine never writes.
type EligibilityService interface {
	Check(ctx context.Context, userAID, userBID uint) (*EligibilityResult, error)
}

type eligibilityService struct {
	edgeRepo  storage.EdgeRepository
	albumRepo storage.AlbumRepository
}

func NewEligibilityService(edgeRepo storage.EdgeRepository, albumRepo storage.AlbumRepository) EligibilityService {
	return &eligibilityService{edgeRepo: edgeRepo, albumRepo: albumRepo}
}

// Check runs the eligibility rules in order: no self pairs, then mutual album
// favorites with at least one favorited album owned by each side, then
// reflections present in both directions. Anonymous reflections count, the
// flag only affects display.
func (s *eligibilityService) Check(ctx context.Context, userAID, userBID uint) (*EligibilityResult, error) {
	if userAID == userBID {
		return &EligibilityResult{
			Eligible:       false,
			MutualAlbumIDs: []uint{},
			Reasons:        []string{"cannot connect with yourself"},
		}, nil
	}

	favA, err := s.edgeRepo.FavoriteAlbumIDs(ctx, userAID)
	if err != nil {
		return nil, fmt.Errorf("loading favorites for user %d: %w", userAID, err)
	}
	favB, err := s.edgeRepo.FavoriteAlbumIDs(ctx, userBID)
	if err != nil {
		return nil, fmt.Errorf("loading favorites for user %d: %w", userBID, err)
	}

	mutual := intersect(favA, favB)
	if len(mutual) > 0 {
		// The intersection alone is not enough: each user must have
		// favorited an album the other one owns.
		owners, err := s.albumRepo.OwnersOfAlbums(ctx, mutual)
		if err != nil {
			return nil, fmt.Errorf("resolving owners of mutual albums: %w", err)
		}
		ownedByA, ownedByB := false, false
		for _, albumID := range mutual {
			switch owners[albumID] {
			case userAID:
				ownedByA = true
			case userBID:
				ownedByB = true
			}
		}
		if !ownedByA || !ownedByB {
			mutual = nil
		}
	}
	if len(mutual) == 0 {
		return &EligibilityResult{
			Eligible:       false,
			MutualAlbumIDs: []uint{},
			Reasons:        []string{"no mutual album favorites"},
		}, nil
	}

	reflAtoB, err := s.edgeRepo.CountReflectionsOnOwner(ctx, userAID, userBID)
	if err != nil {
		return nil, fmt.Errorf("counting reflections from %d on %d: %w", userAID, userBID, err)
	}
	reflBtoA, err := s.edgeRepo.CountReflectionsOnOwner(ctx, userBID, userAID)
	if err != nil {
		return nil, fmt.Errorf("counting reflections from %d on %d: %w", userBID, userAID, err)
	}
	if reflAtoB == 0 || reflBtoA == 0 {
		return &EligibilityResult{
			Eligible:       false,
			MutualAlbumIDs: []uint{},
			Reasons:        []string{"no bidirectional reflections"},
		}, nil
	}

	return &EligibilityResult{
		Eligible:        true,
		MutualAlbumIDs:  mutual,
		ReflectionCount: int(reflAtoB + reflBtoA),
		Reasons:         []string{},
	}, nil
}

// intersect returns the ids present in both slices, preserving the order of
// the first one.
func intersect(a, b []uint) []uint {
	inB := make(map[uint]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []uint
	for _, id := range a {
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
