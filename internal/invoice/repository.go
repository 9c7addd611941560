package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository is the invoice store. Implementations own their records and
// hand out copies.
type Repository interface {
	AddInvoice(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetInvoiceByID(ctx context.Context, id string) (*Invoice, error)
	GetInvoiceByReference(ctx context.Context, reference string) (*Invoice, error)
	UpdateInvoiceByReference(ctx context.Context, reference string, update Update) (*Invoice, error)
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository returns the PostgreSQL-backed store.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

const invoiceColumns = `id, reference, email, phone, amount, currency, description, items, metadata,
	status, paystack_data, last_event, created_at, updated_at`

func (r *repository) AddInvoice(ctx context.Context, inv *Invoice) (*Invoice, error) {
	items, err := json.Marshal(nonNilItems(inv.Items))
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	metadata, err := json.Marshal(inv.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		inv.ID, inv.Reference, inv.Email, nullString(inv.Phone), inv.Amount, inv.Currency, inv.Description,
		items, metadata, string(inv.Status), nullJSON(inv.PaystackData), nullText(inv.LastEvent),
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv.Clone(), nil
}

func (r *repository) GetInvoiceByID(ctx context.Context, id string) (*Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *repository) GetInvoiceByReference(ctx context.Context, reference string) (*Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE reference = $1`, reference)
	return scanInvoice(row)
}

func (r *repository) UpdateInvoiceByReference(ctx context.Context, reference string, update Update) (*Invoice, error) {
	var (
		q    string
		args []any
	)

	switch u := update.(type) {
	case StatusUpdate:
		q = `UPDATE invoices SET status = $1, paystack_data = $2, updated_at = $3 WHERE reference = $4 RETURNING ` + invoiceColumns
		args = []any{string(u.Status), nullJSON(u.ProcessorData), r.now(), reference}
	case EventUpdate:
		q = `UPDATE invoices SET last_event = $1, paystack_data = $2, updated_at = $3 WHERE reference = $4 RETURNING ` + invoiceColumns
		args = []any{nullText(u.Event), nullJSON(u.ProcessorData), r.now(), reference}
	default:
		return nil, fmt.Errorf("%w: unsupported update %T", ErrInvalidInput, update)
	}

	return scanInvoice(r.db.QueryRowContext(ctx, q, args...))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var (
		inv          Invoice
		phone        sql.NullString
		status       string
		items        []byte
		metadata     []byte
		paystackData []byte
		lastEvent    sql.NullString
	)

	err := row.Scan(
		&inv.ID, &inv.Reference, &inv.Email, &phone, &inv.Amount, &inv.Currency, &inv.Description,
		&items, &metadata, &status, &paystackData, &lastEvent, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	if phone.Valid {
		inv.Phone = &phone.String
	}
	inv.Status = Status(status)
	inv.LastEvent = lastEvent.String
	if len(paystackData) > 0 {
		inv.PaystackData = json.RawMessage(paystackData)
	}

	inv.Items = []json.RawMessage{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &inv.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &inv, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func nonNilItems(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
