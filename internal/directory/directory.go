// Package directory maintains the chat-group roster in PostgreSQL: the
// rooms the bot has seen and the nicknames belonging to each.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

// Config holds PostgreSQL connection settings
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Schema       string
	PoolMaxConns int
}

// Directory is a PostgreSQL-backed group and member registry.
type Directory struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and prepares the connection pool.
func New(ctx context.Context, cfg Config) (*Directory, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable search_path=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.Schema,
	)

	poolConf, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse PostgreSQL config: %w", err)
	}
	poolConf.MaxConns = int32(cfg.PoolMaxConns)
	poolConf.HealthCheckPeriod = 15 * time.Second
	poolConf.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConf)
	if err != nil {
		return nil, fmt.Errorf("unable to create PostgreSQL connection pool: %w", err)
	}
	return &Directory{pool: pool}, nil
}

// Close releases the connection pool.
func (d *Directory) Close() {
	d.pool.Close()
}

// Migrate sets up the groups and members tables.
func (d *Directory) Migrate(ctx context.Context) error {
	groupsSchema := `
	CREATE TABLE IF NOT EXISTS groups (
		group_id BIGINT PRIMARY KEY,
		group_name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := d.pool.Exec(ctx, groupsSchema); err != nil {
		return fmt.Errorf("failed to migrate groups table: %w", err)
	}

	membersSchema := `
	CREATE TABLE IF NOT EXISTS members (
		member_id BIGSERIAL PRIMARY KEY,
		group_id BIGINT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
		nickname TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (group_id, nickname)
	);
	CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id);`
	if _, err := d.pool.Exec(ctx, membersSchema); err != nil {
		return fmt.Errorf("failed to migrate members table: %w", err)
	}
	return nil
}

// GetOrCreateGroup registers the room on first contact, adds the author as a
// member when the nickname is new, and returns the group with its roster
// ordered by member id. The member ids assigned here key every uploaded
// chat line, and the calculate service reports transfers in that same id
// space.
func (d *Directory) GetOrCreateGroup(ctx context.Context, groupID int64, groupName, nickname string) (*models.Group, error) {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO groups (group_id, group_name) VALUES ($1, $2)
		ON CONFLICT (group_id) DO UPDATE SET group_name = EXCLUDED.group_name`,
		groupID, groupName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert group %d: %w", groupID, err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO members (group_id, nickname) VALUES ($1, $2)
		ON CONFLICT (group_id, nickname) DO NOTHING`,
		groupID, nickname,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member %q: %w", nickname, err)
	}

	group := &models.Group{GroupID: groupID, GroupName: groupName}
	rows, err := d.pool.Query(ctx,
		`SELECT member_id, nickname FROM members WHERE group_id = $1 ORDER BY member_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of group %d: %w", groupID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.MemberID, &m.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member rows: %w", err)
	}
	return group, nil
}
