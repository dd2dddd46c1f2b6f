// Package items implements the owner-scoped CRUD operations on items.
package items

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"item-server/internal/apperr"
	"item-server/internal/auth"
	"item-server/internal/database"
	"item-server/internal/models"
	"item-server/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit inside an int.
	MaxPage = math.MaxInt / MaxLimit
)

// Publisher pushes committed events to the owner's live connections.
type Publisher interface {
	PublishEvent(userID int64, event *models.Event)
}

type Page struct {
	Items []models.Item `json:"items"`
	Total int64         `json:"total" example:"1"`
	Page  int           `json:"page" example:"1"`
	Limit int           `json:"limit" example:"20"`
}

type Service struct {
	store     Store
	images    storage.Storage
	publisher Publisher
	baseURL   string
	log       zerolog.Logger
}

type Option func(*Service)

func WithImages(images storage.Storage, baseURL string) Option {
	return func(s *Service) {
		s.images = images
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampPage applies the listing defaults and the hard page-size cap.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// List returns one page of the caller's items, newest first.
func (s *Service) List(ctx context.Context, userID int64, page, limit int) (*Page, error) {
	page, limit = ClampPage(page, limit)

	total, err := s.store.CountItemsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	list, err := s.store.ListItemsByOwner(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return &Page{Items: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) Get(ctx context.Context, userID int64, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, apperr.ErrNotFound
	}
	if err := auth.AuthorizeOwnership(userID, item.OwnerID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*models.Item, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	quantity := DefaultQuantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}

	var (
		item  *models.Item
		event *models.Event
	)
	err := s.store.RunInTx(ctx, func(q Queries) error {
		var err error
		item, err = q.CreateItem(ctx, database.CreateItemParams{
			ID:          uuid.New(),
			OwnerID:     userID,
			Name:        in.Name,
			Description: emptyToNil(in.Description),
			Category:    emptyToNil(in.Category),
			ImageURL:    emptyToNil(in.ImageURL),
			Quantity:    quantity,
		})
		if err != nil {
			return err
		}
		event, err = q.LogEvent(ctx, userID, models.EventItemCreated, item)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(userID, event)
	s.log.Info().Int64("user_id", userID).Str("item_id", item.ID.String()).Msg("item created")
	return item, nil
}

// Update loads the item under a row lock, checks ownership, validates the
// supplied fields and applies them, all in one transaction.
func (s *Service) Update(ctx context.Context, userID int64, itemID uuid.UUID, in UpdateInput) (*models.Item, error) {
	in.normalize()

	var (
		item  *models.Item
		event *models.Event
	)
	err := s.store.RunInTx(ctx, func(q Queries) error {
		current, err := q.GetItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		if current == nil {
			return apperr.ErrNotFound
		}
		if err := auth.AuthorizeOwnership(userID, current.OwnerID); err != nil {
			return err
		}
		if err := validateStruct(&in); err != nil {
			return err
		}

		item, err = q.UpdateItem(ctx, database.UpdateItemParams{
			ID:          itemID,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			ImageURL:    in.ImageURL,
			Quantity:    in.Quantity,
		})
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.ErrNotFound
		}
		event, err = q.LogEvent(ctx, userID, models.EventItemUpdated, item)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(userID, event)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, userID int64, itemID uuid.UUID) error {
	var (
		event    *models.Event
		hadImage bool
	)
	err := s.store.RunInTx(ctx, func(q Queries) error {
		current, err := q.GetItemByIDForUpdate(ctx, itemID)
		if err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		if current == nil {
			return apperr.ErrNotFound
		}
		if err := auth.AuthorizeOwnership(userID, current.OwnerID); err != nil {
			return err
		}
		hadImage = current.ImageURL != nil && s.ownsImageURL(*current.ImageURL, itemID)

		deleted, err := q.DeleteItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if !deleted {
			return apperr.ErrNotFound
		}
		event, err = q.LogEvent(ctx, userID, models.EventItemDeleted, map[string]string{"id": itemID.String()})
		return err
	})
	if err != nil {
		return err
	}

	if hadImage {
		if err := s.images.Delete(ctx, itemID.String()); err != nil {
			s.log.Warn().Err(err).Str("item_id", itemID.String()).Msg("failed to delete item image")
		}
	}
	s.publish(userID, event)
	return nil
}

// AttachImage stores an uploaded image for the item and points its
// image_url at the download route.
func (s *Service) AttachImage(ctx context.Context, userID int64, itemID uuid.UUID, contentType string, data io.Reader) (*models.Item, error) {
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	if _, err := s.Get(ctx, userID, itemID); err != nil {
		return nil, err
	}

	if err := s.images.Save(ctx, itemID.String(), data, contentType); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	imageURL := s.imageURL(itemID)
	return s.Update(ctx, userID, itemID, UpdateInput{ImageURL: &imageURL})
}

// OpenImage returns the stored image of an owned item.
func (s *Service) OpenImage(ctx context.Context, userID int64, itemID uuid.UUID) (*storage.Object, error) {
	if s.images == nil {
		return nil, apperr.ErrNotFound
	}
	if _, err := s.Get(ctx, userID, itemID); err != nil {
		return nil, err
	}

	obj, err := s.images.Get(ctx, itemID.String())
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *Service) imageURL(itemID uuid.UUID) string {
	return s.baseURL + "/api/v1/items/" + itemID.String() + "/image"
}

func (s *Service) ownsImageURL(url string, itemID uuid.UUID) bool {
	return s.images != nil && url == s.imageURL(itemID)
}

func (s *Service) publish(userID int64, event *models.Event) {
	if s.publisher == nil || event == nil {
		return
	}
	s.publisher.PublishEvent(userID, event)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
