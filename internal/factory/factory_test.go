package factory

import (
	"testing"

	"github.com/anime-shed/body-measure-go/internal/convergence"
	"github.com/anime-shed/body-measure-go/internal/storage"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

func TestCreateChartFetcher(t *testing.T) {
	f := NewStorageFactory()

	tests := []struct {
		name        string
		storageType StorageType
		settings    StorageSettings
		wantErr     bool
	}{
		{"builtin", BuiltinStorage, StorageSettings{}, false},
		{"empty defaults to builtin", "", StorageSettings{}, false},
		{"http", HTTPStorage, StorageSettings{}, false},
		{"local", LocalStorage, StorageSettings{}, false},
		{"azure without credentials", AzureStorage, StorageSettings{}, true},
		{"unknown", StorageType("ftp"), StorageSettings{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, err := f.CreateChartFetcher(tt.storageType, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateChartFetcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && fetcher == nil {
				t.Error("Expected non-nil fetcher")
			}
		})
	}

	fetcher, _ := f.CreateChartFetcher(BuiltinStorage, StorageSettings{})
	if _, ok := fetcher.(storage.BuiltinChartFetcher); !ok {
		t.Errorf("Expected BuiltinChartFetcher, got %T", fetcher)
	}
}

func TestCreateMachine(t *testing.T) {
	f := NewMachineFactory()

	m, err := f.CreateMachine(convergence.LockModeFixedTimer, convergence.DefaultConfig(), sizing.DefaultChart())
	if err != nil {
		t.Fatalf("CreateMachine() error = %v", err)
	}
	if m.Config().Mode != convergence.LockModeFixedTimer {
		t.Errorf("Expected timer mode, got %s", m.Config().Mode)
	}

	if _, err := f.CreateMachine("eventually", convergence.DefaultConfig(), sizing.DefaultChart()); err == nil {
		t.Error("Expected error for unknown lock mode")
	}
}
