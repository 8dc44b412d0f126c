// Package memory is an in-memory catalog backend, seeded from data files.
// Default backend for local runs and the fixture store for tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"aporte/internal/core"
)

type Store struct {
	mu         sync.Mutex
	properties []core.Property
	investors  []core.Investor
}

func New(properties []core.Property, investors []core.Investor) *Store {
	return &Store{properties: properties, investors: investors}
}

// NewFromFiles seeds the store from semicolon-separated rows in
// base/seed_properties.txt and base/seed_investors.txt. Missing files fall
// back to a small demo catalog.
func NewFromFiles(base string) *Store {
	properties := readProperties(filepath.Join(base, "seed_properties.txt"))
	investors := readInvestors(filepath.Join(base, "seed_investors.txt"))
	if len(properties) == 0 {
		properties = []core.Property{
			{ID: "1", Name: "Casa Corações", City: "Belo Horizonte", State: "MG", Status: core.StatusInProgress},
			{ID: "2", Name: "Edifício Jaraguá", City: "São Paulo", State: "SP", Status: core.StatusCompleted},
		}
	}
	if len(investors) == 0 {
		investors = []core.Investor{
			{Name: "Investidora Demo", TaxID: "12345678900", Email: "demo@example.com", Password: "demo"},
		}
	}
	return New(properties, investors)
}

// ListProperties returns a copy of the property snapshot.
func (s *Store) ListProperties(_ context.Context) ([]core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Property(nil), s.properties...), nil
}

// ListInvestors returns a copy of the investor registry.
func (s *Store) ListInvestors(_ context.Context) ([]core.Investor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Investor(nil), s.investors...), nil
}

// FindInvestor matches credentials: case-insensitive email, exact password.
func (s *Store) FindInvestor(_ context.Context, email, password string) (core.Investor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(email)
	for _, inv := range s.investors {
		if strings.EqualFold(inv.Email, email) && inv.Password == password {
			return inv, true, nil
		}
	}
	return core.Investor{}, false, nil
}

func readProperties(path string) []core.Property {
	var out []core.Property
	for _, fields := range readRows(path) {
		if len(fields) < 2 {
			continue
		}
		p := core.Property{ID: fields[0], Name: fields[1]}
		if len(fields) > 2 {
			p.City = fields[2]
		}
		if len(fields) > 3 {
			p.State = fields[3]
		}
		if len(fields) > 4 {
			p.Status = strings.ToLower(fields[4])
		}
		if p.Validate() == nil {
			out = append(out, p)
		}
	}
	return out
}

func readInvestors(path string) []core.Investor {
	var out []core.Investor
	for _, fields := range readRows(path) {
		if len(fields) < 4 {
			continue
		}
		out = append(out, core.Investor{
			Name:     fields[0],
			TaxID:    core.DigitsOnly(fields[1]),
			Email:    fields[2],
			Password: fields[3],
		})
	}
	return out
}

func readRows(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out [][]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		out = append(out, fields)
	}
	return out
}
