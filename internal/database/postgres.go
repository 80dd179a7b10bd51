package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// LegacyDB is the read-only connection to the previous recommendation
// system's PostgreSQL store. Old recommendations stay queryable there until
// the migration finishes; nothing is ever written back.
type LegacyDB struct {
	conn *sql.DB
}

func NewLegacyDB(host string, port int, user, password, dbname, sslmode string) (*LegacyDB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &LegacyDB{conn: conn}, nil
}

func (db *LegacyDB) Close() error {
	return db.conn.Close()
}

// LegacyRecommendation is one flat row from the old system.
type LegacyRecommendation struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	AreaName    string    `json:"area_name"`
	State       string    `json:"state"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetRecommendationsByEmail returns the old system's recommendations for a
// user, newest first.
func (db *LegacyDB) GetRecommendationsByEmail(email string, limit int) ([]LegacyRecommendation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, email, area_name, state, description, COALESCE(image_url, ''), created_at
		FROM recommendations
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []LegacyRecommendation
	for rows.Next() {
		var r LegacyRecommendation
		if err := rows.Scan(&r.ID, &r.Email, &r.AreaName, &r.State, &r.Description, &r.ImageURL, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
