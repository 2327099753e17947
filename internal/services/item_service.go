// Package services – ItemService
//
// This file implements the ItemService, which manages the demo item resource.
// It normalizes and validates names and descriptions and coordinates
// repository operations for creating, reading, listing (with pagination),
// updating and deleting items.
//
// Errors leave the service categorized: a missing row becomes fault.NotFound
// and validation failures are the Err* values in errors.go. A duplicate name
// is passed through wrapped, and the pipeline classifies it by alias.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/utils"
)

// ItemRepo defines the repository contract required by ItemService.
type ItemRepo interface {
	// CreateItem inserts a new item row.
	CreateItem(ctx context.Context, db *gorm.DB, name, description string) (*domain.Item, error)

	// GetItem fetches a live item by ID.
	GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error)

	// CountItems returns the total number of live items for pagination.
	CountItems(ctx context.Context, db *gorm.DB) (int64, error)

	// ListItemsPage returns a page of live items, newest first.
	ListItemsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Item, error)

	// UpdateItemDescription replaces an item's description.
	UpdateItemDescription(ctx context.Context, db *gorm.DB, id, description string) error

	// DeleteItem soft-deletes an item.
	DeleteItem(ctx context.Context, db *gorm.DB, id string) error

	// ItemsStats returns the live count and latest update time, used for
	// collection ETags.
	ItemsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// ItemService provides item operations with input validation.
type ItemService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the item repository used by this service.
	Repo ItemRepo

	// MaxNameRunes caps item names by rune length.
	MaxNameRunes int
	// MaxDescriptionRunes caps descriptions by rune length (0 disables).
	MaxDescriptionRunes int
}

// NewItemService constructs an ItemService with default limits.
func NewItemService(db *gorm.DB, r ItemRepo) *ItemService {
	return &ItemService{
		DB:                  db,
		Repo:                r,
		MaxNameRunes:        128,
		MaxDescriptionRunes: 2000,
	}
}

// Create validates and inserts a new item.
func (s *ItemService) Create(ctx context.Context, name, description string) (*domain.Item, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if s.MaxNameRunes > 0 && utf8.RuneCountInString(name) > s.MaxNameRunes {
		return nil, ErrNameTooLong
	}
	description = strings.TrimSpace(description)
	if err := s.checkDescription(description); err != nil {
		return nil, err
	}

	it, err := s.Repo.CreateItem(ctx, s.DB, name, description)
	if err != nil {
		return nil, fmt.Errorf("create item %q: %w", name, err)
	}
	return it, nil
}

// Get returns the item with the given ID.
func (s *ItemService) Get(ctx context.Context, id string) (*domain.Item, error) {
	it, err := s.Repo.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return it, nil
}

// ListPage returns a page of items and the total count.
// It applies defaults for invalid page/pageSize.
func (s *ItemService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Item, int64, error) {
	_, pageSize, offset := utils.Window(page, pageSize)

	total, err := s.Repo.CountItems(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Item{}, 0, nil
	}

	items, err := s.Repo.ListItemsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// UpdateDescription replaces the description of an existing item and
// returns the updated row.
func (s *ItemService) UpdateDescription(ctx context.Context, id, description string) (*domain.Item, error) {
	description = strings.TrimSpace(description)
	if err := s.checkDescription(description); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateItemDescription(ctx, s.DB, id, description); err != nil {
		return nil, notFound(err, id)
	}
	return s.Get(ctx, id)
}

// Delete removes an item.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteItem(ctx, s.DB, id); err != nil {
		return notFound(err, id)
	}
	return nil
}

// Stats returns the collection fingerprint (count, latest update).
func (s *ItemService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.ItemsStats(ctx, s.DB)
}

func (s *ItemService) checkDescription(d string) error {
	if s.MaxDescriptionRunes > 0 && utf8.RuneCountInString(d) > s.MaxDescriptionRunes {
		return ErrDescriptionTooLong
	}
	return nil
}

// notFound converts a missing-row error into a categorized one; anything
// else is returned unchanged.
func notFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fault.NotFound("item", id)
	}
	return err
}

// normalizeName trims whitespace and collapses inner runs to one space.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
