package orders_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/storage/postgres"
)

const vehiclesTable = "vehicles"

// VehicleRepo implements orders.VehicleRepository. Plates are stored
// normalized, so GetByPlate is a plain equality probe.
type VehicleRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewVehicleRepo creates the vehicle repository.
func NewVehicleRepo(txm *postgres.TxManager) *VehicleRepo {
	return &VehicleRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*orders.Vehicle](),
	}
}

var _ orders.VehicleRepository = (*VehicleRepo)(nil)

// List returns one page of vehicles and the unpaginated total.
func (r *VehicleRepo) List(ctx context.Context, filter orders.VehicleFilter) ([]*orders.Vehicle, int64, error) {
	q := builder().
		Select(r.cols...).
		From(vehiclesTable)

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.OrphanedOnly {
		q = q.Where("customer_id IS NULL")
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"license_plate": pattern},
			squirrel.ILike{"vin": pattern},
			squirrel.ILike{"make": pattern},
			squirrel.ILike{"model": pattern},
		})
	}

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	q = q.OrderBy("license_plate ASC, id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var out []*orders.Vehicle
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	return out, total, nil
}

// GetByID retrieves one vehicle.
func (r *VehicleRepo) GetByID(ctx context.Context, id int64) (*orders.Vehicle, error) {
	q := builder().
		Select(r.cols...).
		From(vehiclesTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	v := &orders.Vehicle{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(vehiclesTable, id)
		}
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return v, nil
}

// GetByPlate retrieves a vehicle by its normalized license plate.
func (r *VehicleRepo) GetByPlate(ctx context.Context, plate string) (*orders.Vehicle, error) {
	q := builder().
		Select(r.cols...).
		From(vehiclesTable).
		Where(squirrel.Eq{"license_plate": plate})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	v := &orders.Vehicle{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(vehiclesTable, plate)
		}
		return nil, fmt.Errorf("get vehicle by plate: %w", err)
	}
	return v, nil
}

// Create inserts a vehicle and syncs the generated id.
func (r *VehicleRepo) Create(ctx context.Context, v *orders.Vehicle) error {
	data := postgres.StructToMap(v)
	delete(data, "id")

	q := builder().
		Insert(vehiclesTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&v.ID); err != nil {
		return postgres.TranslateError(err, vehiclesTable, v.LicensePlate)
	}
	return nil
}

// Update rewrites a vehicle with optimistic locking.
func (r *VehicleRepo) Update(ctx context.Context, v *orders.Vehicle) error {
	data := postgres.StructToMap(v)
	delete(data, "id")
	delete(data, "version")

	q := builder().
		Update(vehiclesTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": v.ID}).
		Where(squirrel.Eq{"version": v.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, vehiclesTable, v.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(vehiclesTable, v.ID)
	}

	v.Version++
	return nil
}

// Delete removes a vehicle row.
func (r *VehicleRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM vehicles WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err, vehiclesTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(vehiclesTable, id)
	}
	return nil
}

// HasOrders reports whether any order references the vehicle.
func (r *VehicleRepo) HasOrders(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.txm, "SELECT 1 FROM orders WHERE vehicle_id = $1 LIMIT 1", id)
}
