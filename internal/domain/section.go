package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Section is a priced, capacity-bound area of an event (no seat-level selection).
type Section struct {
	id       string
	name     string
	capacity int
	price    Price
}

func NewSection(name string, capacity int, price Price) (*Section, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidArgument("section name", "must not be empty")
	}
	if capacity <= 0 {
		return nil, invalidArgument("section capacity", "must be greater than zero")
	}
	return &Section{
		id:       uuid.NewString(),
		name:     name,
		capacity: capacity,
		price:    price,
	}, nil
}

func (s *Section) ID() string { return s.id }
func (s *Section) Name() string { return s.name }
func (s *Section) Capacity() int { return s.capacity }
func (s *Section) Price() Price { return s.price }

// RestoreSection rebuilds a Section from stored values without generating a
// new id.
func RestoreSection(id, name string, capacity int, price Price) *Section {
	return &Section{id: id, name: name, capacity: capacity, price: price}
}
