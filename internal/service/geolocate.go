package service

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Geolocator maps a client IP to a human-readable location, used only for
// aggregate "someone from X read a case from Y" logging. A nil Geolocator
// disables the feature.
type Geolocator interface {
	Locate(ip string) (string, error)
}

// MaxMindGeolocator resolves locations against a local MaxMind city
// database.
type MaxMindGeolocator struct {
	db *geoip2.Reader
}

// NewMaxMindGeolocator opens the city database at path.
func NewMaxMindGeolocator(path string) (*MaxMindGeolocator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", path, err)
	}
	return &MaxMindGeolocator{db: db}, nil
}

// Locate returns "Subdivision, Country" for the IP, or just the country
// when no subdivision is recorded.
func (g *MaxMindGeolocator) Locate(ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid ip %q", ip)
	}

	city, err := g.db.City(parsed)
	if err != nil {
		return "", fmt.Errorf("failed to geolocate %s: %w", ip, err)
	}

	location := city.Country.Names["en"]
	if n := len(city.Subdivisions); n > 0 {
		// The last subdivision is the most specific one.
		location = city.Subdivisions[n-1].Names["en"] + ", " + location
	}
	return location, nil
}

// Close releases the database handle.
func (g *MaxMindGeolocator) Close() error {
	return g.db.Close()
}
