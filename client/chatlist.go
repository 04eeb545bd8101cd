// Package client is the SDK used by delivery apps: a live connection to the
// broker, an optimistic chat list kept in sync with the message store, and
// the latest known agent position per delivery.
package client

import (
	"sync"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// Entry is one line of a ChatList. The pointer is a stable handle: it keeps
// addressing the same list position while the entry is reconciled.
type Entry struct {
	list    *ChatList
	msg     delivery.Message
	pending bool
}

// Message returns the entry's current message.
func (e *Entry) Message() delivery.Message {
	e.list.mu.RLock()
	defer e.list.mu.RUnlock()
	return e.msg
}

// Pending reports whether the entry still carries a placeholder id.
func (e *Entry) Pending() bool {
	e.list.mu.RLock()
	defer e.list.mu.RUnlock()
	return e.pending
}

// ChatList is the ordered chat of one delivery. Insertion order is display
// order.
type ChatList struct {
	mu         sync.RWMutex
	deliveryID string
	entries    []*Entry
}

// NewChatList creates an empty list for deliveryID.
func NewChatList(deliveryID string) *ChatList {
	return &ChatList{deliveryID: deliveryID}
}

// DeliveryID returns the delivery the list belongs to.
func (l *ChatList) DeliveryID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.deliveryID
}

// Append adds msg at the end of the list and returns its handle.
func (l *ChatList) Append(msg delivery.Message, pending bool) *Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(msg, pending)
}

// AppendUnique appends msg unless an entry with the same non-empty id is
// already present.
func (l *ChatList) AppendUnique(msg delivery.Message, pending bool) (*Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.ID != "" && l.indexOfIDLocked(msg.ID) >= 0 {
		return nil, false
	}
	return l.appendLocked(msg, pending), true
}

func (l *ChatList) appendLocked(msg delivery.Message, pending bool) *Entry {
	e := &Entry{list: l, msg: msg, pending: pending}
	l.entries = append(l.entries, e)
	return e
}

// Reconcile replaces the message behind e with its persisted form, keeping
// its position. It returns false if e is no longer in the list.
func (l *ChatList) Reconcile(e *Entry, persisted delivery.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cur := range l.entries {
		if cur == e {
			cur.msg = persisted
			cur.pending = false
			return true
		}
	}
	return false
}

// Reset replaces the whole list with persisted history.
func (l *ChatList) Reset(deliveryID string, messages []delivery.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deliveryID = deliveryID
	l.entries = make([]*Entry, 0, len(messages))
	for _, msg := range messages {
		l.appendLocked(msg, false)
	}
}

// Has reports whether a message with id is in the list.
func (l *ChatList) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOfIDLocked(id) >= 0
}

func (l *ChatList) indexOfIDLocked(id string) int {
	for i, e := range l.entries {
		if e.msg.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (l *ChatList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Messages returns a snapshot of the list in display order.
func (l *ChatList) Messages() []delivery.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]delivery.Message, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.msg
	}
	return out
}

// PendingCount returns how many entries still await persistence.
func (l *ChatList) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.pending {
			n++
		}
	}
	return n
}
