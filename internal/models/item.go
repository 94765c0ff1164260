package models

import (
	"fmt"
	"strings"
	"time"
)

// Item is a cached resolution of an Audiobookshelf library item to its ASIN.
type Item struct {
	id         string
	sequence   int
	itemID     string
	externalID string
	title      string
	author     string
	resolvedAt time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

var _ Model = (*Item)(nil)

// NewItem creates an unsaved [Item] resolved at the current time.
func NewItem(itemID, externalID, title, author string) *Item {
	now := time.Now().UTC()
	return &Item{
		itemID:     itemID,
		externalID: externalID,
		title:      title,
		author:     author,
		resolvedAt: now,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreItem rebuilds an [Item] from stored columns.
func RestoreItem(id string, sequence int, itemID, externalID, title, author string, resolvedAt, createdAt, updatedAt time.Time) *Item {
	return &Item{
		id:         id,
		sequence:   sequence,
		itemID:     itemID,
		externalID: externalID,
		title:      title,
		author:     author,
		resolvedAt: resolvedAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (i *Item) ID() string            { return i.id }
func (i *Item) Sequence() int         { return i.sequence }
func (i *Item) ItemID() string        { return i.itemID }
func (i *Item) ExternalID() string    { return i.externalID }
func (i *Item) Title() string         { return i.title }
func (i *Item) Author() string        { return i.author }
func (i *Item) ResolvedAt() time.Time { return i.resolvedAt }
func (i *Item) CreatedAt() time.Time  { return i.createdAt }
func (i *Item) UpdatedAt() time.Time  { return i.updatedAt }

func (i *Item) SetID(id string)           { i.id = id }
func (i *Item) SetSequence(seq int)       { i.sequence = seq }
func (i *Item) SetUpdatedAt(t time.Time)  { i.updatedAt = t }
func (i *Item) SetResolvedAt(t time.Time) { i.resolvedAt = t }
func (i *Item) SetExternalID(asin string) { i.externalID = asin }

// SetDetails updates the descriptive fields shown in listings.
func (i *Item) SetDetails(title, author string) {
	i.title = title
	i.author = author
}

// Validate requires both identifiers.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.itemID) == "" {
		return fmt.Errorf("item id is required")
	}
	if strings.TrimSpace(i.externalID) == "" {
		return fmt.Errorf("external id is required")
	}
	return nil
}
