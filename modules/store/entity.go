package store

import (
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// Delivery is the persisted delivery request.
type Delivery struct {
	ID        string    `gorm:"primarykey;size:36"`
	SenderID  string    `gorm:"size:64;not null;index"`
	AgentID   string    `gorm:"size:64;index"`
	Pickup    string    `gorm:"size:255;not null"`
	Dropoff   string    `gorm:"size:255;not null"`
	Status    string    `gorm:"size:16;not null;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for Delivery model.
func (Delivery) TableName() string {
	return "deliveries"
}

func (d *Delivery) toDomain() *delivery.Delivery {
	return &delivery.Delivery{
		ID:        d.ID,
		SenderID:  d.SenderID,
		AgentID:   d.AgentID,
		Pickup:    d.Pickup,
		Dropoff:   d.Dropoff,
		Status:    delivery.Status(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Message is a persisted chat message.
type Message struct {
	ID         string    `gorm:"primarykey;size:36"`
	DeliveryID string    `gorm:"size:36;not null;index:idx_messages_delivery_created"`
	SenderID   string    `gorm:"size:64;not null"`
	Content    string    `gorm:"size:2000;not null"`
	CreatedAt  time.Time `gorm:"index:idx_messages_delivery_created"`
}

// TableName returns the table name for Message model.
func (Message) TableName() string {
	return "messages"
}

func (m *Message) toDomain() delivery.Message {
	return delivery.Message{
		ID:         m.ID,
		DeliveryID: m.DeliveryID,
		SenderID:   m.SenderID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// Location is a persisted agent position sample.
type Location struct {
	ID         string    `gorm:"primarykey;size:36"`
	DeliveryID string    `gorm:"size:36;not null;index:idx_locations_delivery_created"`
	AgentID    string    `gorm:"size:64;not null"`
	Latitude   float64   `gorm:"not null"`
	Longitude  float64   `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index:idx_locations_delivery_created"`
}

// TableName returns the table name for Location model.
func (Location) TableName() string {
	return "locations"
}

func (l *Location) toDomain() delivery.Location {
	return delivery.Location{
		ID:         l.ID,
		DeliveryID: l.DeliveryID,
		AgentID:    l.AgentID,
		Latitude:   l.Latitude,
		Longitude:  l.Longitude,
		CreatedAt:  l.CreatedAt,
	}
}

// models lists every table managed by AutoMigrate.
func models() []any {
	return []any{&Delivery{}, &Message{}, &Location{}}
}
