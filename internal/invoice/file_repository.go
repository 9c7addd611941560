package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"

	"go.uber.org/zap"
)

type StoreMode string

const (
	StoreModeDurable StoreMode = "durable"
	StoreModeMemory  StoreMode = "memory"
)

// FileRepository keeps every invoice in a single JSON array on disk. The first
// filesystem failure switches the handle to an in-memory collection for the
// rest of its life; nothing written afterwards reaches the file.
type FileRepository struct {
	mu      sync.Mutex
	path    string
	mode    StoreMode
	memory  []*Invoice
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewFileRepository(path string, m *metrics.Metrics) *FileRepository {
	return &FileRepository{
		path:    path,
		mode:    StoreModeDurable,
		metrics: m,
		now:     utcNow,
	}
}

// NewMemoryRepository returns a store that never touches disk.
func NewMemoryRepository() *FileRepository {
	return &FileRepository{
		mode:   StoreModeMemory,
		memory: []*Invoice{},
		now:    utcNow,
	}
}

func (r *FileRepository) Mode() StoreMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) AddInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoices := r.readAll(ctx)
	stored := inv.Clone()
	invoices = append(invoices, stored)
	r.writeAll(ctx, invoices)

	return stored.Clone(), nil
}

func (r *FileRepository) GetInvoiceByID(ctx context.Context, id string) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.readAll(ctx) {
		if inv.ID == id {
			return inv.Clone(), nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (r *FileRepository) GetInvoiceByReference(ctx context.Context, reference string) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.readAll(ctx) {
		if inv.Reference == reference {
			return inv.Clone(), nil
		}
	}
	return nil, ErrInvoiceNotFound
}

func (r *FileRepository) UpdateInvoiceByReference(ctx context.Context, reference string, update Update) (*Invoice, error) {
	if update == nil {
		return nil, fmt.Errorf("%w: nil update", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	invoices := r.readAll(ctx)
	for _, inv := range invoices {
		if inv.Reference != reference {
			continue
		}
		update.apply(inv)
		inv.UpdatedAt = r.now()
		r.writeAll(ctx, invoices)
		return inv.Clone(), nil
	}
	return nil, ErrInvoiceNotFound
}

// ----------------- Storage -----------------

func (r *FileRepository) ensureStore() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(r.path, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("create store file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("stat store file: %w", err)
	}
	return nil
}

func (r *FileRepository) readAll(ctx context.Context) []*Invoice {
	if r.mode == StoreModeMemory {
		return r.memory
	}

	if err := r.ensureStore(); err != nil {
		r.degrade(ctx, err)
		return r.memory
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		r.degrade(ctx, fmt.Errorf("read store file: %w", err))
		return r.memory
	}

	invoices := []*Invoice{}
	if err := json.Unmarshal(data, &invoices); err != nil {
		r.degrade(ctx, fmt.Errorf("parse store file: %w", err))
		return r.memory
	}
	return invoices
}

func (r *FileRepository) writeAll(ctx context.Context, invoices []*Invoice) {
	if r.mode == StoreModeMemory {
		r.memory = invoices
		return
	}

	if invoices == nil {
		invoices = []*Invoice{}
	}
	data, err := json.MarshalIndent(invoices, "", "  ")
	if err == nil {
		if err = r.ensureStore(); err == nil {
			err = os.WriteFile(r.path, data, 0o644)
		}
	}
	if err != nil {
		r.degrade(ctx, fmt.Errorf("write store file: %w", err))
		r.memory = invoices
	}
}

// degrade switches to memory mode. Callers hold r.mu.
func (r *FileRepository) degrade(ctx context.Context, err error) {
	if r.mode == StoreModeMemory {
		return
	}
	r.mode = StoreModeMemory
	if r.memory == nil {
		r.memory = []*Invoice{}
	}
	r.metrics.StoreDegraded()

	logger.FromCtx(ctx).Warn("invoice store degraded to in-memory mode",
		zap.String("layer", "repository"),
		zap.String("path", r.path),
		zap.Error(err),
	)
}
