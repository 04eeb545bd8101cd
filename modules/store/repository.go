package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors. Their messages are matched by the adapter because error
// types do not survive the service boundary.
var (
	ErrNotFound     = errors.New("delivery not found")
	ErrForbidden    = errors.New("delivery access forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("delivery was modified concurrently")
)

// Repository provides access to delivery, message and location storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateDelivery saves a new delivery.
func (r *Repository) CreateDelivery(ctx context.Context, d *Delivery) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

// FindDelivery retrieves a delivery by its ID.
func (r *Repository) FindDelivery(ctx context.Context, id string) (*Delivery, error) {
	var d Delivery
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find delivery: %w", err)
	}
	return &d, nil
}

// UpdateDelivery writes the given columns only if the delivery is still in
// the expected status. It returns ErrConflict when another writer won.
func (r *Repository) UpdateDelivery(ctx context.Context, id, expectedStatus string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&Delivery{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(updates)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindDelivery(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CreateMessage saves a chat message.
func (r *Repository) CreateMessage(ctx context.Context, m *Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages returns the messages of a delivery, oldest first.
func (r *Repository) ListMessages(ctx context.Context, deliveryID string) ([]*Message, error) {
	var messages []*Message
	if err := r.db.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		Order("created_at ASC").
		Order("rowid ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// CreateLocation saves a location sample.
func (r *Repository) CreateLocation(ctx context.Context, l *Location) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// ListLocations returns the location samples of a delivery, newest first.
// A non-positive limit returns every sample.
func (r *Repository) ListLocations(ctx context.Context, deliveryID string, limit int) ([]*Location, error) {
	q := r.db.WithContext(ctx).
		Where("delivery_id = ?", deliveryID).
		Order("created_at DESC").
		Order("rowid DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var locations []*Location
	if err := q.Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}
