package memory

import (
	"fmt"
	"os"
	"time"

	"github.com/Domenick1991/charterbooking/internal/domain"
	"gopkg.in/yaml.v3"
)

// Seed is the fixture format for storage.seed_file.
type Seed struct {
	Users   []SeedUser   `yaml:"users"`
	Flights []SeedFlight `yaml:"flights"`
}

type SeedUser struct {
	ID     string `yaml:"id"`
	Email  string `yaml:"email"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

type SeedFlight struct {
	ID             string    `yaml:"id"`
	FleetID        string    `yaml:"fleet_id"`
	FromAirport    string    `yaml:"from_airport"`
	ToAirport      string    `yaml:"to_airport"`
	FromCity       string    `yaml:"from_city"`
	ToCity         string    `yaml:"to_city"`
	DepartureTime  time.Time `yaml:"departure_time"`
	ArrivalTime    time.Time `yaml:"arrival_time"`
	TotalSeats     int       `yaml:"total_seats"`
	AvailableSeats *int      `yaml:"available_seats"`
	Status         string    `yaml:"status"`
}

func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Apply validates every record before inserting any of them.
func (s *Store) Apply(seed *Seed) error {
	flights := make([]domain.Flight, 0, len(seed.Flights))
	for _, sf := range seed.Flights {
		f, err := sf.toFlight()
		if err != nil {
			return err
		}
		flights = append(flights, f)
	}

	for _, su := range seed.Users {
		if su.ID == "" {
			return fmt.Errorf("seed user without id")
		}
		active := su.Active == nil || *su.Active
		s.Users.Put(domain.User{ID: su.ID, Email: su.Email, Name: su.Name, Active: active})
	}
	for _, f := range flights {
		s.Flights.Put(f)
	}
	return nil
}

func (sf SeedFlight) toFlight() (domain.Flight, error) {
	status := domain.FlightStatus(sf.Status)
	if sf.Status == "" {
		status = domain.FlightStatusScheduled
	}
	available := sf.TotalSeats
	if sf.AvailableSeats != nil {
		available = *sf.AvailableSeats
	}

	switch {
	case sf.ID == "":
		return domain.Flight{}, fmt.Errorf("seed flight without id")
	case !status.Valid():
		return domain.Flight{}, fmt.Errorf("flight %s: unknown status %q", sf.ID, sf.Status)
	case sf.TotalSeats < 0 || available < 0 || available > sf.TotalSeats:
		return domain.Flight{}, fmt.Errorf("flight %s: seats out of range", sf.ID)
	case !sf.ArrivalTime.After(sf.DepartureTime):
		return domain.Flight{}, fmt.Errorf("flight %s: arrival must be after departure", sf.ID)
	}

	now := time.Now()
	return domain.Flight{
		ID:             sf.ID,
		FleetID:        sf.FleetID,
		FromAirport:    sf.FromAirport,
		ToAirport:      sf.ToAirport,
		FromCity:       sf.FromCity,
		ToCity:         sf.ToCity,
		DepartureTime:  sf.DepartureTime,
		ArrivalTime:    sf.ArrivalTime,
		TotalSeats:     sf.TotalSeats,
		AvailableSeats: available,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
