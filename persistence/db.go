// Package persistence archives finished runs in SQLite.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/telemetry"
)

// Window kinds stored in the dol table.
const (
	KindSummary = "summary"
	KindWindow  = "window"
)

// DB wraps a SQLite connection for the run archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		replicate INTEGER NOT NULL,
		seed TEXT NOT NULL,
		model TEXT NOT NULL,
		colony_size INTEGER NOT NULL,
		simulation_time REAL NOT NULL,
		events INTEGER NOT NULL,
		wall_seconds REAL NOT NULL,
		created_at TEXT NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dol (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		kind TEXT NOT NULL,
		min_t REAL NOT NULL,
		max_t REAL NOT NULL,
		gautrais REAL NOT NULL,
		duarte REAL NOT NULL,
		gorelick_tasks REAL NOT NULL,
		gorelick_indiv REAL NOT NULL,
		gorelick_both REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		run_id TEXT NOT NULL REFERENCES runs(id),
		agent_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		t REAL NOT NULL,
		task INTEGER NOT NULL,
		fat_body REAL NOT NULL,
		PRIMARY KEY (run_id, agent_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_dol_run ON dol(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run describes one finished replicate.
type Run struct {
	ID             string  `db:"id"`
	Replicate      int     `db:"replicate"`
	Seed           string  `db:"seed"` // uint64 does not fit SQLite INTEGER
	Model          string  `db:"model"`
	ColonySize     int     `db:"colony_size"`
	SimulationTime float64 `db:"simulation_time"`
	Events         int     `db:"events"`
	WallSeconds    float64 `db:"wall_seconds"`
	CreatedAt      string  `db:"created_at"`
	ConfigYAML     string  `db:"config_yaml"`
}

// NewRun fills a Run for a replicate with a fresh ID.
func NewRun(replicate int, seed uint64, cfg *config.Config, events int, wall time.Duration) (Run, error) {
	data, err := cfg.YAML()
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:             uuid.NewString(),
		Replicate:      replicate,
		Seed:           fmt.Sprintf("%d", seed),
		Model:          cfg.Sharing.Model,
		ColonySize:     cfg.Colony.Size,
		SimulationTime: cfg.Colony.SimulationTime,
		Events:         events,
		WallSeconds:    wall.Seconds(),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		ConfigYAML:     string(data),
	}, nil
}

// DoLRow is one stored set of indices.
type DoLRow struct {
	RunID         string  `db:"run_id"`
	Kind          string  `db:"kind"`
	MinT          float64 `db:"min_t"`
	MaxT          float64 `db:"max_t"`
	Gautrais      float64 `db:"gautrais"`
	Duarte        float64 `db:"duarte"`
	GorelickTasks float64 `db:"gorelick_tasks"`
	GorelickIndiv float64 `db:"gorelick_indiv"`
	GorelickBoth  float64 `db:"gorelick_both"`
}

// SaveRun writes a run, its indices and optionally its histories in one
// transaction. A nil histories slice skips the history table.
func (db *DB) SaveRun(run Run, summary telemetry.DoL, windows []telemetry.DoL, histories [][]components.Record) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO runs
		(id, replicate, seed, model, colony_size, simulation_time, events, wall_seconds, created_at, config_yaml)
		VALUES (:id, :replicate, :seed, :model, :colony_size, :simulation_time, :events, :wall_seconds, :created_at, :config_yaml)`,
		run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	dolStmt, err := tx.Preparex(`INSERT INTO dol
		(run_id, kind, min_t, max_t, gautrais, duarte, gorelick_tasks, gorelick_indiv, gorelick_both)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer dolStmt.Close()

	insertDoL := func(kind string, d telemetry.DoL) error {
		_, err := dolStmt.Exec(run.ID, kind, d.MinT, d.MaxT,
			d.Gautrais, d.Duarte, d.GorelickTasks, d.GorelickIndiv, d.GorelickBoth)
		return err
	}
	if err := insertDoL(KindSummary, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	for _, w := range windows {
		if err := insertDoL(KindWindow, w); err != nil {
			return fmt.Errorf("save window: %w", err)
		}
	}

	if histories != nil {
		histStmt, err := tx.Preparex(`INSERT INTO history
			(run_id, agent_id, seq, t, task, fat_body) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer histStmt.Close()

		for id, h := range histories {
			for seq, r := range h {
				if _, err := histStmt.Exec(run.ID, id, seq, r.T, int(r.Task), r.FatBody); err != nil {
					return fmt.Errorf("save history: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("run archived", "run_id", run.ID, "replicate", run.Replicate, "windows", len(windows))
	return nil
}

// Runs returns every archived run, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, replicate, seed, model, colony_size, simulation_time, events, wall_seconds, created_at, config_yaml FROM runs ORDER BY created_at, replicate",
	)
	return runs, err
}

// DoL returns the stored indices of a run, summary first.
func (db *DB) DoL(runID string) ([]DoLRow, error) {
	var rows []DoLRow
	err := db.conn.Select(&rows,
		`SELECT run_id, kind, min_t, max_t, gautrais, duarte, gorelick_tasks, gorelick_indiv, gorelick_both
		FROM dol WHERE run_id = ? ORDER BY id`,
		runID,
	)
	return rows, err
}

// History returns one agent's stored history.
func (db *DB) History(runID string, agentID int) ([]components.Record, error) {
	var rows []struct {
		T       float64 `db:"t"`
		Task    int     `db:"task"`
		FatBody float64 `db:"fat_body"`
	}
	err := db.conn.Select(&rows,
		"SELECT t, task, fat_body FROM history WHERE run_id = ? AND agent_id = ? ORDER BY seq",
		runID, agentID,
	)
	if err != nil {
		return nil, err
	}
	out := make([]components.Record, len(rows))
	for i, r := range rows {
		out[i] = components.Record{T: r.T, Task: components.Task(r.Task), FatBody: r.FatBody}
	}
	return out, nil
}
