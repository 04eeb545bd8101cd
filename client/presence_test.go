package client

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceLastWriteWins(t *testing.T) {
	p := NewPresence()
	now := time.Now()

	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D1", Latitude: 37.0, Longitude: -122.0, Timestamp: now})
	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D1", Latitude: 37.1, Longitude: -122.1, Timestamp: now.Add(time.Second)})

	got, ok := p.Latest("D1")
	require.True(t, ok)
	assert.Equal(t, 37.1, got.Latitude)
	assert.Equal(t, -122.1, got.Longitude)
}

func TestPresenceIgnoresTimestamps(t *testing.T) {
	p := NewPresence()
	now := time.Now()

	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D1", Latitude: 1, Timestamp: now})
	// Older timestamp, but it arrived last.
	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D1", Latitude: 2, Timestamp: now.Add(-time.Hour)})

	got, _ := p.Latest("D1")
	assert.Equal(t, 2.0, got.Latitude)
}

func TestPresencePerDeliveryAndForget(t *testing.T) {
	p := NewPresence()
	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D1", Latitude: 1})
	p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: "D2", Latitude: 2})
	p.OnLocationEvent(delivery.LocationUpdateEvent{Latitude: 3})

	d1, _ := p.Latest("D1")
	d2, _ := p.Latest("D2")
	assert.Equal(t, 1.0, d1.Latitude)
	assert.Equal(t, 2.0, d2.Latitude)

	_, ok := p.Latest("")
	assert.False(t, ok)

	p.Forget("D1")
	_, ok = p.Latest("D1")
	assert.False(t, ok)
	_, ok = p.Latest("D2")
	assert.True(t, ok)
}

func TestPresenceConcurrentAccess(t *testing.T) {
	p := NewPresence()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.OnLocationEvent(delivery.LocationUpdateEvent{DeliveryID: fmt.Sprintf("D%d", i%2), Latitude: float64(j)})
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Latest(fmt.Sprintf("D%d", i%2))
			}
		}(i)
	}
	wg.Wait()

	_, ok := p.Latest("D0")
	assert.True(t, ok)
}
