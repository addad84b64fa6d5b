package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// DB implements repository.PropertyRepository over PostgreSQL.
type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the listings and purge_logs tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS listings (
		id VARCHAR(36) PRIMARY KEY,
		owner_id VARCHAR(36) NOT NULL,
		title TEXT,
		description TEXT,
		price DECIMAL(12, 2),
		address TEXT,
		property_type VARCHAR(50),
		square_footage INTEGER,
		bedrooms INTEGER,
		bathrooms DECIMAL(4, 1),
		image_urls TEXT,
		source_url VARCHAR(500),
		email_subject TEXT,
		email_received_at TIMESTAMP,

		status VARCHAR(20) NOT NULL DEFAULT 'active',
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMP,
		duplicate_of VARCHAR(36),

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
	CREATE INDEX IF NOT EXISTS idx_listings_owner_id ON listings(owner_id);
	CREATE INDEX IF NOT EXISTS idx_listings_duplicate_of ON listings(duplicate_of);
	CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);

	CREATE TABLE IF NOT EXISTS purge_logs (
		id SERIAL PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL,
		owner_id VARCHAR(36),
		title TEXT,
		address TEXT,
		purged_at TIMESTAMP NOT NULL DEFAULT NOW(),
		reason VARCHAR(50) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purge_logs_purged_at ON purge_logs(purged_at DESC);
	`
	_, err := db.conn.Exec(query)
	return err
}

const listingColumns = `id, owner_id, title, description, price, address, property_type,
	square_footage, bedrooms, bathrooms, image_urls, source_url, email_subject, email_received_at,
	status, archived, deleted, deleted_at, duplicate_of, created_at, updated_at`

func (db *DB) FindByID(id string) (*models.Listing, error) {
	row := db.conn.QueryRow(`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (db *DB) FindActiveByAddressExact(address, excludeID string) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE archived = FALSE AND deleted = FALSE AND id <> $1
		  AND LOWER(BTRIM(address)) = LOWER(BTRIM($2))
		ORDER BY created_at ASC, id ASC`
	return db.queryListings(query, excludeID, address)
}

func (db *DB) FindActiveByAddressTokens(tokens []string, excludeID string) ([]models.Listing, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + listingColumns + `
		FROM listings
		WHERE archived = FALSE AND deleted = FALSE AND id <> $1`)

	args := []interface{}{excludeID}
	for _, token := range tokens {
		args = append(args, "%"+strings.ToLower(token)+"%")
		sb.WriteString(fmt.Sprintf(" AND LOWER(address) LIKE $%d", len(args)))
	}
	sb.WriteString(" ORDER BY created_at ASC, id ASC")

	return db.queryListings(sb.String(), args...)
}

func (db *DB) FindAllActive() ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE archived = FALSE AND deleted = FALSE AND status <> $1
		ORDER BY created_at ASC, id ASC`
	return db.queryListings(query, string(models.ListingStatusPending))
}

func (db *DB) FindPending() ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE status = $1 AND deleted = FALSE
		ORDER BY created_at DESC, id DESC`
	return db.queryListings(query, string(models.ListingStatusPending))
}

func (db *DB) FindDeletedBefore(cutoff time.Time) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE deleted = TRUE AND deleted_at < $1
		ORDER BY created_at ASC, id ASC`
	return db.queryListings(query, cutoff)
}

// Save upserts a listing by id, preserving the original created_at
func (db *DB) Save(l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now

	imageURLs, err := json.Marshal(l.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}

	query := `
	INSERT INTO listings (` + listingColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (id) DO UPDATE SET
		owner_id = EXCLUDED.owner_id,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		address = EXCLUDED.address,
		property_type = EXCLUDED.property_type,
		square_footage = EXCLUDED.square_footage,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		image_urls = EXCLUDED.image_urls,
		source_url = EXCLUDED.source_url,
		email_subject = EXCLUDED.email_subject,
		email_received_at = EXCLUDED.email_received_at,
		status = EXCLUDED.status,
		archived = EXCLUDED.archived,
		deleted = EXCLUDED.deleted,
		deleted_at = EXCLUDED.deleted_at,
		duplicate_of = EXCLUDED.duplicate_of,
		updated_at = EXCLUDED.updated_at
	`
	_, err = db.conn.Exec(query,
		l.ID, l.OwnerID, l.Title, l.Description, l.Price, l.Address, l.PropertyType,
		l.SquareFootage, l.Bedrooms, l.Bathrooms, string(imageURLs), l.SourceURL,
		l.EmailSubject, l.EmailReceivedAt,
		string(l.Status), l.Archived, l.Deleted, l.DeletedAt, l.DuplicateOf,
		l.CreatedAt, l.UpdatedAt)
	return err
}

func (db *DB) Delete(id string) error {
	result, err := db.conn.Exec(`DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (db *DB) RecordPurge(entry *models.PurgeLog) error {
	if entry.PurgedAt.IsZero() {
		entry.PurgedAt = time.Now()
	}
	query := `
	INSERT INTO purge_logs (listing_id, owner_id, title, address, purged_at, reason)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := db.conn.Exec(query,
		entry.ListingID, entry.OwnerID, entry.Title, entry.Address, entry.PurgedAt, entry.Reason)
	return err
}

func (db *DB) RecentPurgeLogs(limit int) ([]models.PurgeLog, error) {
	query := `
		SELECT id, listing_id, owner_id, title, address, purged_at, reason
		FROM purge_logs
		ORDER BY purged_at DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.PurgeLog
	for rows.Next() {
		var entry models.PurgeLog
		if err := rows.Scan(&entry.ID, &entry.ListingID, &entry.OwnerID,
			&entry.Title, &entry.Address, &entry.PurgedAt, &entry.Reason); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (db *DB) queryListings(query string, args ...interface{}) ([]models.Listing, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var l models.Listing
	var imageURLs sql.NullString
	var status string

	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Price, &l.Address, &l.PropertyType,
		&l.SquareFootage, &l.Bedrooms, &l.Bathrooms, &imageURLs, &l.SourceURL,
		&l.EmailSubject, &l.EmailReceivedAt,
		&status, &l.Archived, &l.Deleted, &l.DeletedAt, &l.DuplicateOf,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = models.ListingStatus(status)
	if imageURLs.Valid && imageURLs.String != "" {
		if err := json.Unmarshal([]byte(imageURLs.String), &l.ImageURLs); err != nil {
			return nil, fmt.Errorf("unmarshal image urls for listing %s: %w", l.ID, err)
		}
	}
	return &l, nil
}
