package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wishgift/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrVendorExists     = errors.New("vendor already exists")
	ErrUserExists       = errors.New("user already exists")
	ErrItemNotFound     = errors.New("catalog item not found")
	ErrWishlistNotFound = errors.New("wishlist not found")
	// ErrConcurrentUpdate is surfaced when the optimistic entry update loses
	// the per-entry race more times than the ledger is willing to retry.
	ErrConcurrentUpdate = errors.New("entry modified concurrently")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// busy_timeout keeps concurrent ledger writers waiting instead of failing,
	// foreign_keys enforces the entry/contribution ownership relations.
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping verifies the database connection, used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a new recipient account with a zero cash balance.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, name, phone, cash_on_hand_cents, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		u.Username, u.Email, u.Name, u.Phone, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, ErrUserExists
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	u.CashOnHand = core.Money{}

	slog.InfoContext(ctx, "User created", "id", u.ID, "username", u.Username)
	return u, nil
}

// GetUser returns the recipient account including its current cash balance.
func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, name, phone, cash_on_hand_cents
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Phone, &u.CashOnHand.Cents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, ErrUserNotFound
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateVendor(ctx context.Context, v core.Vendor) (core.Vendor, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO vendors (name, email, phone, created_at) VALUES (?, ?, ?, ?)`,
		v.Name, v.Email, v.Phone, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return core.Vendor{}, ErrVendorExists
		}
		return core.Vendor{}, fmt.Errorf("create vendor: %w", err)
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return core.Vendor{}, fmt.Errorf("vendor insert id: %w", err)
	}

	slog.InfoContext(ctx, "Vendor registered", "id", v.ID, "name", v.Name)
	return v, nil
}

func (r *SQLiteRepository) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone FROM vendors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []core.Vendor
	for rows.Next() {
		var v core.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// CreateItem inserts a catalog item and its image URLs in one transaction.
func (r *SQLiteRepository) CreateItem(ctx context.Context, item core.CatalogItem) (core.CatalogItem, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM vendors WHERE id = ?)`, item.VendorID).Scan(&exists)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("check vendor: %w", err)
	}
	if !exists {
		return core.CatalogItem{}, ErrVendorNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_items (vendor_id, name, description, price_cents, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.VendorID, item.Name, item.Description, item.Price.Cents, item.Category, time.Now().UTC())
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("create item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("item insert id: %w", err)
	}

	for _, url := range item.ImageURLs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_images (item_id, image_url) VALUES (?, ?)`, item.ID, url); err != nil {
			return core.CatalogItem{}, fmt.Errorf("create item image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.CatalogItem{}, fmt.Errorf("commit item: %w", err)
	}

	slog.InfoContext(ctx, "Catalog item added",
		"id", item.ID,
		"vendor_id", item.VendorID,
		"name", item.Name,
		"price_cents", item.Price.Cents,
		"images", len(item.ImageURLs))
	return item, nil
}

func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (core.CatalogItem, error) {
	var item core.CatalogItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, vendor_id, name, description, price_cents, category, added_to_wishlist_count
		 FROM catalog_items WHERE id = ?`, id).
		Scan(&item.ID, &item.VendorID, &item.Name, &item.Description,
			&item.Price.Cents, &item.Category, &item.AddedToWishlistCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CatalogItem{}, ErrItemNotFound
		}
		return core.CatalogItem{}, fmt.Errorf("get item: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT image_url FROM item_images WHERE item_id = ? ORDER BY id`, id)
	if err != nil {
		return core.CatalogItem{}, fmt.Errorf("get item images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return core.CatalogItem{}, fmt.Errorf("scan item image: %w", err)
		}
		item.ImageURLs = append(item.ImageURLs, url)
	}
	return item, rows.Err()
}

func (r *SQLiteRepository) CreateWishlist(ctx context.Context, w core.Wishlist) (core.Wishlist, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, w.UserID).Scan(&exists)
	if err != nil {
		return core.Wishlist{}, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return core.Wishlist{}, ErrUserNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO wishlists (user_id, title, description, expiry_date, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		w.UserID, w.Title, w.Description, w.ExpiryDate.UTC(), time.Now().UTC())
	if err != nil {
		return core.Wishlist{}, fmt.Errorf("create wishlist: %w", err)
	}
	w.ID, err = res.LastInsertId()
	if err != nil {
		return core.Wishlist{}, fmt.Errorf("wishlist insert id: %w", err)
	}

	slog.InfoContext(ctx, "Wishlist created", "id", w.ID, "user_id", w.UserID, "title", w.Title)
	return w, nil
}

func (r *SQLiteRepository) GetWishlist(ctx context.Context, id int64) (core.Wishlist, error) {
	var w core.Wishlist
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, expiry_date FROM wishlists WHERE id = ?`, id).
		Scan(&w.ID, &w.UserID, &w.Title, &w.Description, &w.ExpiryDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Wishlist{}, ErrWishlistNotFound
		}
		return core.Wishlist{}, fmt.Errorf("get wishlist: %w", err)
	}
	return w, nil
}

// GetEntry returns a single wishlist entry. The listing/read path never
// mutates entries; only the ledger does.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.WishlistEntry, error) {
	return scanEntry(r.db.QueryRowContext(ctx, entrySelect+` WHERE id = ?`, id))
}

// ListEntries returns all entries of a wishlist in creation order.
func (r *SQLiteRepository) ListEntries(ctx context.Context, wishlistID int64) ([]core.WishlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, entrySelect+` WHERE wishlist_id = ? ORDER BY id`, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.WishlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListContributions returns the ledger lines of an entry in commit order.
func (r *SQLiteRepository) ListContributions(ctx context.Context, entryID int64) ([]core.Contribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, name, email, phone, amount_cents, message, created_at
		 FROM contributions WHERE entry_id = ? ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contribs []core.Contribution
	for rows.Next() {
		var c core.Contribution
		if err := rows.Scan(&c.ID, &c.EntryID, &c.Name, &c.Email, &c.Phone,
			&c.Amount.Cents, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contribs = append(contribs, c)
	}
	return contribs, rows.Err()
}

const entrySelect = `SELECT id, wishlist_id, item_id, name, description, price_cents,
	amount_paid_cents, status, version, created_at FROM wishlist_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.WishlistEntry, error) {
	var e core.WishlistEntry
	var itemID sql.NullInt64
	err := row.Scan(&e.ID, &e.WishlistID, &itemID, &e.Name, &e.Description,
		&e.Price.Cents, &e.AmountPaid.Cents, &e.Status, &e.Version, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.WishlistEntry{}, core.ErrEntryNotFound
		}
		return core.WishlistEntry{}, fmt.Errorf("scan entry: %w", err)
	}
	if itemID.Valid {
		e.ItemID = &itemID.Int64
	}
	return e, nil
}

// isUniqueViolation detects sqlite UNIQUE constraint failures without
// depending on driver error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
