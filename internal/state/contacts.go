package state

import (
	"sort"
	"sync"

	"github.com/resbox/resbox-core/internal/model"
)

type Contacts struct {
	mu    sync.RWMutex
	items map[string]model.Contact
}

func NewContacts() *Contacts {
	return &Contacts{items: make(map[string]model.Contact)}
}

// Replace swaps the whole contact set owned by ownerID for contacts.
func (c *Contacts) Replace(ownerID string, contacts []model.Contact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, existing := range c.items {
		if existing.OwnerID == ownerID {
			delete(c.items, id)
		}
	}
	for _, contact := range contacts {
		if contact.OwnerID == "" {
			contact.OwnerID = ownerID
		}
		c.items[contact.ID] = contact
	}
}

func (c *Contacts) Get(id string) (model.Contact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	contact, ok := c.items[id]
	return contact, ok
}

// List returns the contacts ordered by username.
func (c *Contacts) List() []model.Contact {
	c.mu.RLock()
	out := make([]model.Contact, 0, len(c.items))
	for _, contact := range c.items {
		out = append(out, contact)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ContactUsername != out[j].ContactUsername {
			return out[i].ContactUsername < out[j].ContactUsername
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Contacts) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
