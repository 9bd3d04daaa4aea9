// Package memory provides an in-memory ledger store for tests and
// development.
package memory

import (
	"context"
	"sync"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

type partition struct {
	incomes  []core.IncomeRecord
	expenses []core.ExpenseRecord
}

// Store keeps quarter partitions in maps and counts loads and saves so
// tests can assert on storage traffic.
type Store struct {
	mu    sync.Mutex
	parts map[core.Quarter]*partition

	loads int
	saves int
}

func New() *Store {
	return &Store{parts: make(map[core.Quarter]*partition)}
}

func (s *Store) Load(_ context.Context, q core.Quarter) ([]core.IncomeRecord, []core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	p, ok := s.parts[q]
	if !ok {
		return []core.IncomeRecord{}, []core.ExpenseRecord{}, nil
	}
	incomes := append([]core.IncomeRecord(nil), p.incomes...)
	expenses := append([]core.ExpenseRecord(nil), p.expenses...)
	return incomes, expenses, nil
}

func (s *Store) SaveIncomes(_ context.Context, q core.Quarter, records []core.IncomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.part(q).incomes = append([]core.IncomeRecord(nil), records...)
	return nil
}

func (s *Store) SaveExpenses(_ context.Context, q core.Quarter, records []core.ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.part(q).expenses = append([]core.ExpenseRecord(nil), records...)
	return nil
}

func (s *Store) part(q core.Quarter) *partition {
	p, ok := s.parts[q]
	if !ok {
		p = &partition{}
		s.parts[q] = p
	}
	return p
}

// Loads returns the number of Load calls seen so far.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Saves returns the number of Save calls seen so far.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
