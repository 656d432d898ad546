package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetsim/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// MigrateDir applies *.sql files from dir in lexical order. Dev helper; the
// statements are idempotent (CREATE IF NOT EXISTS).
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("migrate %s: %w", f, err)
		}
	}
	return nil
}

// ListDrivers returns drivers in a stable order. With limit>0 this is the
// prefix slice of the pool the simulation runner assigns from.
func (p *Postgres) ListDrivers(ctx context.Context, limit int) ([]model.Driver, error) {
	q := `SELECT id::text, name, shift_hours, past_week_hours FROM drivers ORDER BY created_at, id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = p.db.QueryContext(ctx, q+` LIMIT $1`, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Driver{}
	for rows.Next() {
		var d model.Driver
		var hours []byte
		if err := rows.Scan(&d.ID, &d.Name, &d.ShiftHours, &hours); err != nil {
			return nil, err
		}
		if err := unmarshalFloats(hours, &d.PastWeekHours); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveDriver(ctx context.Context, d model.Driver) (model.Driver, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE drivers SET name=$2, shift_hours=$3, past_week_hours=$4 WHERE id=$1`,
		d.ID, d.Name, d.ShiftHours, marshalFloats(d.PastWeekHours))
	if err != nil {
		return model.Driver{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Driver{}, ErrNotFound
	}
	return d, nil
}

func (p *Postgres) CountDrivers(ctx context.Context) (int, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM drivers`)
}

func (p *Postgres) ListRoutes(ctx context.Context) ([]model.Route, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, route_id, distance_km, traffic_level, base_time_min FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Route{}
	for rows.Next() {
		var r model.Route
		if err := rows.Scan(&r.ID, &r.RouteID, &r.DistanceKm, &r.TrafficLevel, &r.BaseTimeMin); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) CountRoutes(ctx context.Context) (int, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM routes`)
}

func (p *Postgres) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id::text, order_id, value_rs, route_id, delivery_time FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.OrderID, &o.ValueRs, &o.RouteID, &o.DeliveryTime); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) CountOrders(ctx context.Context) (int, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM orders`)
}

func (p *Postgres) CreateSimulation(ctx context.Context, run model.SimulationRun) (model.SimulationRun, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO simulations (id, num_drivers, start_time, max_hours_per_driver, total_profit, efficiency_score, on_time_deliveries, late_deliveries, fuel_cost, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		run.ID, run.NumDrivers, run.StartTime, run.MaxHoursPerDriver, run.TotalProfit,
		run.EfficiencyScore, run.OnTimeDeliveries, run.LateDeliveries, run.FuelCost, run.CreatedAt)
	if err != nil {
		return model.SimulationRun{}, err
	}
	return run, nil
}

func (p *Postgres) LatestSimulation(ctx context.Context) (model.SimulationRun, error) {
	row := p.db.QueryRowContext(ctx, simSelect+` ORDER BY created_at DESC LIMIT 1`)
	run, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SimulationRun{}, ErrNotFound
	}
	return run, err
}

var simSortColumns = map[string]string{
	"createdAt":       "created_at",
	"totalProfit":     "total_profit",
	"efficiencyScore": "efficiency_score",
}

func (p *Postgres) ListSimulations(ctx context.Context, offset, limit int, sortField, sortDir string) ([]model.SimulationRun, error) {
	col, ok := simSortColumns[sortField]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`%s ORDER BY %s %s, id LIMIT $1 OFFSET $2`, simSelect, col, dir), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SimulationRun{}
	for rows.Next() {
		run, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (p *Postgres) CountSimulations(ctx context.Context) (int, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM simulations`)
}

const simSelect = `SELECT id::text, num_drivers, start_time, max_hours_per_driver, total_profit, efficiency_score, on_time_deliveries, late_deliveries, fuel_cost, created_at FROM simulations`

type rowScanner interface{ Scan(dest ...any) error }

func scanSimulation(row rowScanner) (model.SimulationRun, error) {
	var run model.SimulationRun
	err := row.Scan(&run.ID, &run.NumDrivers, &run.StartTime, &run.MaxHoursPerDriver,
		&run.TotalProfit, &run.EfficiencyScore, &run.OnTimeDeliveries, &run.LateDeliveries,
		&run.FuelCost, &run.CreatedAt)
	return run, err
}

func (p *Postgres) count(ctx context.Context, q string) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// past_week_hours is a jsonb column holding the rolling window.
func marshalFloats(v []float64) []byte {
	if v == nil {
		v = []float64{}
	}
	b, _ := json.Marshal(v)
	return b
}

func unmarshalFloats(b []byte, dest *[]float64) error {
	if len(b) == 0 {
		*dest = nil
		return nil
	}
	return json.Unmarshal(b, dest)
}
