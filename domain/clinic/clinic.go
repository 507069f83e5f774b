// Package clinic models the clinic directory and ranks clinics by
// great-circle distance.
package clinic

import (
	"context"
	"errors"
)

// ErrInvalidLocation indicates latitude or longitude was missing or not a number.
var ErrInvalidLocation = errors.New("invalid location data. Latitude and longitude must be numbers")

// Location is a latitude/longitude pair in degrees.
type Location struct {
	lat float64
	lng float64
}

// NewLocation creates a new Location.
func NewLocation(lat, lng float64) Location {
	return Location{lat: lat, lng: lng}
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 { return l.lat }

// Lng returns the longitude in degrees.
func (l Location) Lng() float64 { return l.lng }

// Clinic is a directory record.
type Clinic struct {
	id       int64
	name     string
	address  string
	location Location
	phone    string
}

// NewClinic creates a Clinic that has not been persisted yet.
func NewClinic(name, address string, location Location, phone string) Clinic {
	return Clinic{
		name:     name,
		address:  address,
		location: location,
		phone:    phone,
	}
}

// Reconstruct rebuilds a Clinic from stored fields.
func Reconstruct(id int64, name, address string, lat, lng float64, phone string) Clinic {
	return Clinic{
		id:       id,
		name:     name,
		address:  address,
		location: NewLocation(lat, lng),
		phone:    phone,
	}
}

// ID returns the clinic id.
func (c Clinic) ID() int64 { return c.id }

// Name returns the clinic name.
func (c Clinic) Name() string { return c.name }

// Address returns the street address.
func (c Clinic) Address() string { return c.address }

// Location returns the clinic coordinates.
func (c Clinic) Location() Location { return c.location }

// Phone returns the contact number.
func (c Clinic) Phone() string { return c.phone }

// Store reads and seeds the clinic directory.
type Store interface {
	// FindAll returns every clinic ordered by id.
	FindAll(ctx context.Context) ([]Clinic, error)

	// Count returns the number of stored clinics.
	Count(ctx context.Context) (int64, error)

	// SeedIfEmpty inserts clinics only when the directory is empty.
	// It reports whether anything was inserted.
	SeedIfEmpty(ctx context.Context, clinics []Clinic) (bool, error)
}
