// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iwvelando/invoice-roi/pkg/roi"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

// ErrForced is returned by FakeStore when ForceError is set.
var ErrForced = errors.New("forced store failure")

// ExampleInputs returns the reference projection parameters.
func ExampleInputs() roi.Inputs {
	return roi.DefaultInputs()
}

// FindSummary finds a summary by name in the summaries slice.
// Returns a pointer to the summary if found, nil otherwise.
func FindSummary(summaries []scenario.Summary, name string) *scenario.Summary {
	for i := range summaries {
		if summaries[i].Name == name {
			return &summaries[i]
		}
	}
	return nil
}

// FakeStore is a scenario.Store that records how it was called. Records are
// returned in the order they were appended to Records, so tests control the
// listing order directly. Inserted records get an id and, when absent, a
// created_at of the current time.
type FakeStore struct {
	mu sync.Mutex

	Records []scenario.Record
	NextID  string

	InsertCalls int
	ListCalls   int
	GetCalls    int
	DeleteCalls int

	ForceError bool
}

func (f *FakeStore) Insert(_ context.Context, rec scenario.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.InsertCalls++
	if f.ForceError {
		return "", ErrForced
	}
	id := f.NextID
	if id == "" {
		id = "fake-id"
	}
	stored := scenario.Record{}
	for k, v := range rec {
		stored[k] = v
	}
	stored[scenario.ColumnID] = id
	if _, ok := stored[scenario.ColumnCreatedAt]; !ok {
		stored[scenario.ColumnCreatedAt] = time.Now().UTC()
	}
	f.Records = append([]scenario.Record{stored}, f.Records...)
	return id, nil
}

func (f *FakeStore) List(_ context.Context) ([]scenario.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ListCalls++
	if f.ForceError {
		return nil, ErrForced
	}
	return append([]scenario.Record(nil), f.Records...), nil
}

func (f *FakeStore) Get(_ context.Context, id string) (scenario.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.GetCalls++
	if f.ForceError {
		return nil, ErrForced
	}
	for _, rec := range f.Records {
		if rec[scenario.ColumnID] == id {
			return rec, nil
		}
	}
	return nil, scenario.ErrNotFound
}

func (f *FakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DeleteCalls++
	if f.ForceError {
		return ErrForced
	}
	for i, rec := range f.Records {
		if rec[scenario.ColumnID] == id {
			f.Records = append(f.Records[:i], f.Records[i+1:]...)
			return nil
		}
	}
	return scenario.ErrNotFound
}

// Calls returns the total number of store calls made.
func (f *FakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InsertCalls + f.ListCalls + f.GetCalls + f.DeleteCalls
}
