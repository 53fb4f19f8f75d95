package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/arnavk09/campusswap/internal/models"
)

const (
	// SimilarLimit caps the similar-items lookup.
	SimilarLimit = 8
	// MaxImages bounds a listing's image set; at least one is required.
	MaxImages = 5
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrUserNotFound = errors.New("user not found")
	// ErrNotSeller is returned when the caller does not own the listing.
	ErrNotSeller = errors.New("caller is not the seller of this item")
)

// ValidationError marks client-correctable input problems.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ImageStorage stores listing images and addresses them by public URL.
type ImageStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// Service is the item catalog: feed queries, similar-items lookup, and
// seller-scoped listing management.
type Service struct {
	db     *gorm.DB
	images ImageStorage
}

func NewService(db *gorm.DB, images ImageStorage) *Service {
	return &Service{db: db, images: images}
}

// ImageUpload is one raw image from a multipart create request. Order is
// preserved in the stored listing.
type ImageUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateItemInput carries the fields of a new listing.
type CreateItemInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Condition   string
	Tags        []string
	Images      []ImageUpload
}

// UpdateItemInput is a partial update; nil fields are left untouched.
type UpdateItemInput struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	Condition   *string
	Tags        *[]string
	IsAvailable *bool
}

// List returns one page of the public feed: available items only,
// narrowed by every supplied filter, with seller projections embedded.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Item, Pagination, error) {
	base := f.Apply(s.db.WithContext(ctx).Model(&models.Item{}).Where("is_available = ?", true))
	return s.page(base, f)
}

// ListBySeller returns the caller's own listings with no availability
// restriction.
func (s *Service) ListBySeller(ctx context.Context, sellerUID string, f Filter) ([]models.Item, Pagination, error) {
	seller, err := s.userByUID(ctx, sellerUID)
	if err != nil {
		return nil, Pagination{}, err
	}
	base := f.Apply(s.db.WithContext(ctx).Model(&models.Item{}).Where("seller_id = ?", seller.ID))
	return s.page(base, f)
}

func (s *Service) page(base *gorm.DB, f Filter) ([]models.Item, Pagination, error) {
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	items := make([]models.Item, 0, f.Limit)
	err := base.Session(&gorm.Session{}).
		Preload("Seller").
		Order(f.OrderClause()).
		Limit(f.Limit).
		Offset(f.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return items, NewPagination(total, f.Page, f.Limit), nil
}

// Get loads one item with its seller projection.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Preload("Seller").First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Similar returns up to SimilarLimit other available items in the base
// item's category, newest first.
func (s *Service) Similar(ctx context.Context, id uuid.UUID) ([]models.Item, error) {
	base, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, SimilarLimit)
	err = s.db.WithContext(ctx).
		Preload("Seller").
		Where("category = ? AND is_available = ? AND id <> ?", base.Category, true, base.ID).
		Order("created_at DESC").
		Limit(SimilarLimit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create validates the listing, uploads its images, and inserts the row.
func (s *Service) Create(ctx context.Context, sellerUID string, input CreateItemInput) (*models.Item, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, invalid("title is required")
	}
	if input.Price < 0 {
		return nil, invalid("price must be non-negative")
	}
	if !models.ValidCategory(input.Category) {
		return nil, invalid("unknown category %q", input.Category)
	}
	if !models.ValidCondition(input.Condition) {
		return nil, invalid("unknown condition %q", input.Condition)
	}
	if len(input.Images) == 0 {
		return nil, invalid("at least one image is required")
	}
	if len(input.Images) > MaxImages {
		return nil, invalid("at most %d images are allowed", MaxImages)
	}

	seller, err := s.userByUID(ctx, sellerUID)
	if err != nil {
		return nil, err
	}

	urls, err := s.uploadImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    input.Category,
		Condition:   input.Condition,
		Images:      urls,
		Tags:        normalizeStored(input.Tags),
		IsAvailable: true,
		SellerID:    seller.ID,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	item.Seller = seller
	return item, nil
}

// uploadImages stores every image concurrently, keeping request order in
// the returned URLs. Any failed upload aborts the whole create.
func (s *Service) uploadImages(ctx context.Context, images []ImageUpload) (pq.StringArray, error) {
	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxImages)

	for i, img := range images {
		g.Go(func() error {
			key := fmt.Sprintf("items/%s%s", uuid.New(), strings.ToLower(filepath.Ext(img.Name)))
			url, err := s.images.Upload(gctx, key, img.ContentType, bytes.NewReader(img.Data))
			if err != nil {
				return fmt.Errorf("uploading image %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Update applies a partial field update; only the owning seller may
// mutate a listing.
func (s *Service) Update(ctx context.Context, sellerUID string, id uuid.UUID, input UpdateItemInput) (*models.Item, error) {
	seller, err := s.userByUID(ctx, sellerUID)
	if err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != seller.ID {
		return nil, ErrNotSeller
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, invalid("title cannot be empty")
		}
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, invalid("price must be non-negative")
		}
		item.Price = *input.Price
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			return nil, invalid("unknown category %q", *input.Category)
		}
		item.Category = *input.Category
	}
	if input.Condition != nil {
		if !models.ValidCondition(*input.Condition) {
			return nil, invalid("unknown condition %q", *input.Condition)
		}
		item.Condition = *input.Condition
	}
	if input.Tags != nil {
		item.Tags = normalizeStored(*input.Tags)
	}
	if input.IsAvailable != nil {
		item.IsAvailable = *input.IsAvailable
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the listing and best-effort deletes its stored images.
func (s *Service) Delete(ctx context.Context, sellerUID string, id uuid.UUID) error {
	seller, err := s.userByUID(ctx, sellerUID)
	if err != nil {
		return err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != seller.ID {
		return ErrNotSeller
	}

	if err := s.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", item.ID).Error; err != nil {
		return err
	}

	for _, url := range item.Images {
		if err := s.images.Delete(ctx, url); err != nil {
			log.Printf("failed to delete image %s: %v", url, err)
		}
	}
	return nil
}

func (s *Service) userByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeStored(tags []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
