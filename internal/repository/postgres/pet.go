package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/vetclinic/internal/authz"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/internal/repository"
)

type petRepository struct {
	BaseRepository
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{NewBaseRepository(db)}
}

type petRow struct {
	model.Base
	model.PetData
}

const petColumns = `p.id, p.version, p.created_at, p.updated_at,
	p.name, p.species, p.breed, COALESCE(p.birth_date, '0001-01-01'::date) AS birth_date,
	p.weight, p.sex, p.owner_id`

func (r *petRepository) Insert(ctx context.Context, pet *model.Pet) (int64, error) {
	d := pet.Snapshot()
	b := pet.Meta()
	query := `
		INSERT INTO pets (name, species, breed, birth_date, weight, sex, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.Name, d.Species, d.Breed, nullTime(d.BirthDate), d.Weight, d.Sex, d.OwnerID,
	).Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return 0, translate("insert pet", "pet", err)
	}
	return b.ID, nil
}

func (r *petRepository) Get(ctx context.Context, id int64) (*model.Pet, error) {
	var row petRow
	query := `SELECT ` + petColumns + ` FROM pets p WHERE p.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate("get pet", "pet", err)
	}
	pets, err := r.attachConsultations(ctx, []petRow{row})
	if err != nil {
		return nil, err
	}
	return pets[0], nil
}

func (r *petRepository) ListBy(ctx context.Context, scope authz.Scope, f model.PetFilter) ([]*model.Pet, error) {
	var c conditions
	if f.OwnerID != 0 {
		c.add("p.owner_id = ?", f.OwnerID)
	}
	if f.Name != "" {
		c.add("p.name ILIKE ?", "%"+f.Name+"%")
	}
	c.addScope(authz.ResourcePet, scope)

	var rows []petRow
	query := `SELECT ` + petColumns + ` FROM pets p` + c.where() + ` ORDER BY p.id`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, translate("list pets", "pet", err)
	}
	return r.attachConsultations(ctx, rows)
}

func (r *petRepository) attachConsultations(ctx context.Context, rows []petRow) ([]*model.Pet, error) {
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var links []struct {
		PetID    int64 `db:"pet_id"`
		RecordID int64 `db:"clinical_record_id"`
	}
	if len(ids) > 0 {
		query := `SELECT pet_id, clinical_record_id FROM pet_consultations WHERE pet_id = ANY($1) ORDER BY seq`
		if err := r.db.SelectContext(ctx, &links, query, pq.Array(ids)); err != nil {
			return nil, translate("list consultations", "consultation", err)
		}
	}
	byPet := make(map[int64][]int64, len(rows))
	for _, l := range links {
		byPet[l.PetID] = append(byPet[l.PetID], l.RecordID)
	}

	out := make([]*model.Pet, 0, len(rows))
	for _, row := range rows {
		row.Consultations = byPet[row.ID]
		out = append(out, model.RestorePet(row.Base, row.PetData))
	}
	return out, nil
}

// Update writes the pet row and appends any consultation not stored yet, in
// one transaction.
func (r *petRepository) Update(ctx context.Context, pet *model.Pet) (bool, error) {
	d := pet.Snapshot()
	b := pet.Meta()
	updated := false
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE pets
			SET name = $1, species = $2, breed = $3, birth_date = $4, weight = $5, sex = $6,
				version = version + 1, updated_at = NOW()
			WHERE id = $7 AND version = $8
			RETURNING version, updated_at
		`
		var (
			version int
			err     error
		)
		err = tx.QueryRowxContext(ctx, query,
			d.Name, d.Species, d.Breed, nullTime(d.BirthDate), d.Weight, d.Sex, b.ID, b.Version,
		).Scan(&version, &b.UpdatedAt)
		if updated, err = casResult("update pet", err); err != nil || !updated {
			return err
		}
		for _, recordID := range d.Consultations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pet_consultations (pet_id, clinical_record_id)
				VALUES ($1, $2)
				ON CONFLICT (pet_id, clinical_record_id) DO NOTHING
			`, b.ID, recordID)
			if err != nil {
				return translate("append consultation", "consultation", err)
			}
		}
		b.Version = version
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (r *petRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.deleteByID(ctx, "pets", id)
}
