package repository_test

import (
	"testing"

	"github.com/Leganyst/event-series/internal/db/dbtest"
	"github.com/Leganyst/event-series/internal/repository"
	"github.com/Leganyst/event-series/internal/repository/storetest"
)

func TestGormSeriesStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.SeriesStore {
		return repository.NewGormSeriesStore(dbtest.New(t))
	})
}

func TestMemorySeriesStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.SeriesStore {
		return repository.NewMemorySeriesStore()
	})
}
