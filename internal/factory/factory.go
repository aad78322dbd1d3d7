package factory

import (
	"fmt"
	"time"

	"github.com/anime-shed/body-measure-go/internal/convergence"
	"github.com/anime-shed/body-measure-go/internal/storage"
)

// StorageType represents different size chart sources
type StorageType string

const (
	// BuiltinStorage uses the compiled-in chart
	BuiltinStorage StorageType = "builtin"
	// HTTPStorage downloads the chart over HTTP
	HTTPStorage StorageType = "http"
	// AzureStorage reads the chart from Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage reads the chart from the local file system
	LocalStorage StorageType = "local"
)

// StorageSettings carries what the chart sources need
type StorageSettings struct {
	FetchTimeout time.Duration
	AzureAccount string
	AzureKey     string
}

// StorageFactory creates chart sources
type StorageFactory interface {
	CreateChartFetcher(storageType StorageType, settings StorageSettings) (storage.ChartFetcher, error)
}

// MachineFactory creates convergence machines
type MachineFactory interface {
	CreateMachine(mode convergence.LockMode, base convergence.Config, classifier convergence.Classifier) (*convergence.Machine, error)
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateChartFetcher creates a chart source based on the specified type
func (f *storageFactory) CreateChartFetcher(storageType StorageType, settings StorageSettings) (storage.ChartFetcher, error) {
	switch storageType {
	case BuiltinStorage, "":
		return storage.BuiltinChartFetcher{}, nil
	case HTTPStorage:
		timeout := settings.FetchTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return storage.NewHTTPChartFetcher(timeout), nil
	case AzureStorage:
		if settings.AzureAccount == "" || settings.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires an account name and key")
		}
		return storage.NewAzureChartFetcher(settings.AzureAccount, settings.AzureKey)
	case LocalStorage:
		return storage.LocalChartFetcher{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// machineFactory implements MachineFactory
type machineFactory struct{}

// NewMachineFactory creates a new machine factory
func NewMachineFactory() MachineFactory {
	return &machineFactory{}
}

// CreateMachine creates a machine for the lock mode, overriding base.Mode
func (f *machineFactory) CreateMachine(mode convergence.LockMode, base convergence.Config, classifier convergence.Classifier) (*convergence.Machine, error) {
	switch mode {
	case convergence.LockModeDualSignal, convergence.LockModeFixedTimer:
		base.Mode = mode
		return convergence.NewMachine(base, classifier)
	default:
		return nil, fmt.Errorf("unsupported lock mode: %s", mode)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	MachineFactory MachineFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(),
		MachineFactory: NewMachineFactory(),
	}
}
