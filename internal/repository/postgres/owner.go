package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

type ownerRepository struct {
	BaseRepository
}

func NewOwnerRepository(db *sqlx.DB) repository.OwnerRepository {
	return &ownerRepository{NewBaseRepository(db)}
}

type ownerRow struct {
	model.Base
	model.OwnerData
}

const ownerColumns = `o.id, o.version, o.created_at, o.updated_at,
	o.name, o.national_id, o.phone, o.email, o.birth_date, o.address`

func (r *ownerRepository) Insert(ctx context.Context, owner *model.Owner) (int64, error) {
	d := owner.Snapshot()
	query := `
		INSERT INTO owners (name, national_id, phone, email, birth_date, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at
	`
	b := owner.Meta()
	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.NationalID, d.Phone, d.Email, d.BirthDate, d.Address,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, translate("insert owner", "owner", err)
	}
	return b.ID, nil
}

func (r *ownerRepository) Get(ctx context.Context, id int64) (*model.Owner, error) {
	var row ownerRow
	query := `SELECT ` + ownerColumns + ` FROM owners o WHERE o.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate("get owner", "owner", err)
	}
	owners, err := r.attachPets(ctx, []ownerRow{row})
	if err != nil {
		return nil, err
	}
	return owners[0], nil
}

func (r *ownerRepository) ListBy(ctx context.Context, scope authz.Scope) ([]*model.Owner, error) {
	var c conditions
	c.addScope(authz.ResourceOwner, scope)

	var rows []ownerRow
	query := `SELECT ` + ownerColumns + ` FROM owners o` + c.where() + ` ORDER BY o.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list owners", "owner", err)
	}
	return r.attachPets(ctx, rows)
}

// attachPets fills the pet view of each owner with one query.
func (r *ownerRepository) attachPets(ctx context.Context, rows []ownerRow) ([]*model.Owner, error) {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var links []struct {
		ID      int64 `db:"id"`
		OwnerID int64 `db:"owner_id"`
	}
	if len(ids) > 0 {
		query := `SELECT id, owner_id FROM pets WHERE owner_id = ANY($1) ORDER BY id`
		if err := r.db.SelectContext(ctx, &links, query, pq.Array(ids)); err != nil {
			return nil, translate("list owner pets", "pet", err)
		}
	}
	byOwner := make(map[int64][]int64, len(rows))
	for _, l := range links {
		byOwner[l.OwnerID] = append(byOwner[l.OwnerID], l.ID)
	}

	out := make([]*model.Owner, 0, len(rows))
	for _, row := range rows {
		row.PetIDs = byOwner[row.ID]
		out = append(out, model.RestoreOwner(row.Base, row.OwnerData))
	}
	return out, nil
}

func (r *ownerRepository) Update(ctx context.Context, owner *model.Owner) (bool, error) {
	d := owner.Snapshot()
	b := owner.Meta()
	query := `
		UPDATE owners
		SET name = $1, phone = $2, email = $3, address = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.Phone, d.Email, d.Address, b.ID, b.Version,
	).Scan(&b.Version, &b.UpdatedAt)
	return casResult("update owner", err)
}

func (r *ownerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "owners", id)
}
