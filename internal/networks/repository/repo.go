package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/netgraph"
	"github.com/NetDSS-25-26J-035/net-dss-backend/internal/networks/domain"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create stores the network row with its serialized edge list in a jsonb
// column. The networks table keeps content_hash unique; the service checks
// for duplicates first, and the constraint catches concurrent uploads of
// the same file.
func (r *Repo) Create(ctx context.Context, n *domain.Network) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal network payload: %w", err)
	}

	const q = `
insert into networks (id, name, directed, node_count, edge_count, content_hash, payload)
values ($1::uuid, $2, $3, $4, $5, $6, $7)
returning created_at, updated_at;
`
	err = r.db.QueryRow(ctx, q,
		n.ID, n.Name, n.Directed, n.NodeCount, n.EdgeCount, n.ContentHash, payload,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrNetworkExists
	}
	return err
}

func (r *Repo) Get(ctx context.Context, id string) (*domain.Network, error) {
	const q = `
select id, name, directed, node_count, edge_count, content_hash, payload, created_at, updated_at
from networks
where id = $1::uuid;
`
	var (
		n       domain.Network
		payload []byte
	)
	err := r.db.QueryRow(ctx, q, id).Scan(
		&n.ID, &n.Name, &n.Directed, &n.NodeCount, &n.EdgeCount,
		&n.ContentHash, &payload, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNetworkNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		var rec netgraph.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal network payload: %w", err)
		}
		n.Payload = &rec
	}
	return &n, nil
}

// FindByHash looks a network up by its content hash, without the payload.
// Ingestion uses it to report re-uploads of an unchanged file.
func (r *Repo) FindByHash(ctx context.Context, contentHash string) (*domain.Network, error) {
	const q = `
select id, name, directed, node_count, edge_count, content_hash, created_at, updated_at
from networks
where content_hash = $1
order by created_at asc
limit 1;
`
	var n domain.Network
	err := r.db.QueryRow(ctx, q, contentHash).Scan(
		&n.ID, &n.Name, &n.Directed, &n.NodeCount, &n.EdgeCount,
		&n.ContentHash, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNetworkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Network, error) {
	const q = `
select id, name, directed, node_count, edge_count, content_hash, created_at, updated_at
from networks
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Network, 0, 16)
	for rows.Next() {
		var n domain.Network
		if err := rows.Scan(&n.ID, &n.Name, &n.Directed, &n.NodeCount, &n.EdgeCount,
			&n.ContentHash, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `
delete from networks
where id = $1::uuid;
`
	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
