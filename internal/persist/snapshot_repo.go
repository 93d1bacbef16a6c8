package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/emberline/ecscore/internal/snapshot"
)

// ErrSnapshotNotFound is returned by Latest when a world has no snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepo stores encoded world snapshots. It implements snapshot.Sink.
type SnapshotRepo struct {
	db   *DB
	keep int
}

var _ snapshot.Sink = (*SnapshotRepo)(nil)

// NewSnapshotRepo returns a repo that keeps the newest keep snapshots per
// world after each save. keep <= 0 keeps everything.
func NewSnapshotRepo(db *DB, keep int) *SnapshotRepo {
	return &SnapshotRepo{db: db, keep: keep}
}

// Save inserts rec and prunes older snapshots of the same world in one
// transaction.
func (r *SnapshotRepo) Save(ctx context.Context, rec snapshot.Record) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO world_snapshots (world_name, world_id, tick, checksum, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.World, rec.WorldID, int64(rec.Tick), rec.Checksum[:], rec.Data, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("snapshot insert: %w", err)
	}
	if r.keep > 0 {
		if err := prune(ctx, tx, rec.World, r.keep); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("snapshot commit: %w", err)
	}

	r.db.log.Debug("snapshot saved",
		zap.String("world", rec.World),
		zap.Uint64("tick", rec.Tick),
		zap.Int("bytes", len(rec.Data)),
	)
	return nil
}

// Latest returns the snapshot with the highest tick for world.
func (r *SnapshotRepo) Latest(ctx context.Context, world string) (snapshot.Record, error) {
	var (
		rec      snapshot.Record
		tick     int64
		checksum []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT world_name, world_id, tick, checksum, data, created_at
		 FROM world_snapshots WHERE world_name = $1
		 ORDER BY tick DESC, id DESC LIMIT 1`, world,
	).Scan(&rec.World, &rec.WorldID, &tick, &checksum, &rec.Data, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, fmt.Errorf("world %q: %w", world, ErrSnapshotNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("snapshot latest: %w", err)
	}
	rec.Tick = uint64(tick)
	copy(rec.Checksum[:], checksum)
	return rec, nil
}

// Prune deletes all but the newest keep snapshots of world.
func (r *SnapshotRepo) Prune(ctx context.Context, world string, keep int) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("prune begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := prune(ctx, tx, world, keep); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func prune(ctx context.Context, tx pgx.Tx, world string, keep int) error {
	_, err := tx.Exec(ctx,
		`DELETE FROM world_snapshots
		 WHERE world_name = $1 AND id NOT IN (
		     SELECT id FROM world_snapshots WHERE world_name = $1
		     ORDER BY tick DESC, id DESC LIMIT $2)`,
		world, keep,
	)
	if err != nil {
		return fmt.Errorf("snapshot prune: %w", err)
	}
	return nil
}
