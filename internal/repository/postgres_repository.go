package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-lifecycle/internal/auctionerrors"
	model "auction-lifecycle/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresRepo implements AuctionDB and UserDB on PostgreSQL. Listing mutations are
// conditional updates on (id, version).
type PostgresRepo struct {
	db *sqlx.DB
}

// NewPostgresRepo creates a new PostgreSQL repository
func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const listingColumns = `id, owner_id, name, description, current_price, max_price, validation_state,
	auction_state, leader_bid_id, leader_id, winner_id, reviewed_by, closed_by, version, created_at, updated_at`

func (r *PostgresRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES (:id, :owner_id, :name, :description, :current_price, :max_price, :validation_state,
			:auction_state, :leader_bid_id, :leader_id, :winner_id, :reviewed_by, :closed_by, :version, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, listing); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, auctionerrors.ErrConflict)
		}
		return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
	}
	return nil
}

func (r *PostgresRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	var listing model.Listing
	err := r.db.GetContext(ctx, &listing, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrNotFound)
		}
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (r *PostgresRepo) ListListings(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.OwnerID != "" {
		add("owner_id", filter.OwnerID)
	}
	if filter.ValidationState != "" {
		add("validation_state", filter.ValidationState)
	}
	if filter.AuctionState != "" {
		add("auction_state", filter.AuctionState)
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	listings := []model.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

const updateListingQuery = `
	UPDATE listings SET
		current_price = $3, max_price = $4, validation_state = $5, auction_state = $6,
		leader_bid_id = $7, leader_id = $8, winner_id = $9, reviewed_by = $10, closed_by = $11,
		version = $12, updated_at = $13
	WHERE id = $1 AND version = $2
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PostgresRepo) casListing(ctx context.Context, ex execer, listing model.Listing, expectedVersion int64) error {
	res, err := ex.ExecContext(ctx, updateListingQuery,
		listing.ListingID, expectedVersion,
		listing.CurrentPrice, listing.MaxPrice, listing.ValidationState, listing.AuctionState,
		listing.LeaderBidID, listing.LeaderID, listing.WinnerID, listing.ReviewedBy, listing.ClosedBy,
		listing.Version, listing.UpdatedAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetListing(ctx, listing.ListingID); errors.Is(getErr, auctionerrors.ErrNotFound) {
			return auctionerrors.ErrNotFound
		}
		return fmt.Errorf("%w - expected version %d", auctionerrors.ErrConflict, expectedVersion)
	}
	return nil
}

func (r *PostgresRepo) UpdateListing(ctx context.Context, listing model.Listing, expectedVersion int64) error {
	if err := r.casListing(ctx, r.db, listing, expectedVersion); err != nil {
		return fmt.Errorf("update listing %s: %w", listing.ListingID, err)
	}
	return nil
}

func (r *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid, listing model.Listing, expectedVersion int64) (err error) {
	if bid.ListingID != listing.ListingID {
		return fmt.Errorf("record bid for listing %s: %w - bid references listing %s", listing.ListingID, auctionerrors.ErrInvalidInput, bid.ListingID)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record bid for listing %s: failed to start transaction: %w", listing.ListingID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.casListing(ctx, tx, listing, expectedVersion); err != nil {
		return fmt.Errorf("record bid for listing %s: %w", listing.ListingID, err)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO bids (id, listing_id, bidder_id, amount, sequence, created_at)
		VALUES (:id, :listing_id, :bidder_id, :amount, :sequence, :created_at)
	`, bid)
	if err != nil {
		return fmt.Errorf("record bid for listing %s: failed to insert bid: %w", listing.ListingID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("record bid for listing %s: failed to commit: %w", listing.ListingID, err)
	}
	return nil
}

func (r *PostgresRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	if _, err := r.GetListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}

	bids := []model.Bid{}
	err := r.db.SelectContext(ctx, &bids, `
		SELECT id, listing_id, bidder_id, amount, sequence, created_at
		FROM bids WHERE listing_id = $1 ORDER BY sequence ASC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

func (r *PostgresRepo) CreateAuthorization(ctx context.Context, auth model.PaymentAuthorization) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO payment_authorizations (token, listing_id, winner_id, amount, issued_at, consumed_at)
		VALUES (:token, :listing_id, :winner_id, :amount, :issued_at, :consumed_at)
	`, auth)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create authorization for listing %s: %w", auth.ListingID, auctionerrors.ErrAlreadySettled)
		}
		return fmt.Errorf("create authorization for listing %s: %w", auth.ListingID, err)
	}
	return nil
}

func (r *PostgresRepo) ConsumeAuthorization(ctx context.Context, token string, at time.Time) (model.PaymentAuthorization, error) {
	var auth model.PaymentAuthorization
	err := r.db.GetContext(ctx, &auth, `
		UPDATE payment_authorizations SET consumed_at = $2
		WHERE token = $1 AND consumed_at IS NULL
		RETURNING token, listing_id, winner_id, amount, issued_at, consumed_at
	`, token, at)
	if err == nil {
		return auth, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM payment_authorizations WHERE token = $1)`, token); err != nil {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", err)
	}
	if exists {
		return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", auctionerrors.ErrAlreadySettled)
	}
	return model.PaymentAuthorization{}, fmt.Errorf("consume authorization: %w", auctionerrors.ErrNotFound)
}

func (r *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES (:id, :email, :name, :password_hash, :role, :created_at)
	`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailTaken)
		}
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *PostgresRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE id = $1`, userID)
}

func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getUser(ctx, `SELECT * FROM users WHERE email = $1`, strings.ToLower(email))
}

func (r *PostgresRepo) getUser(ctx context.Context, query, arg string) (model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", arg, auctionerrors.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w", arg, err)
	}
	return user, nil
}

func (r *PostgresRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *PostgresRepo) UpdateUserRole(ctx context.Context, userID string, role model.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, userID, role)
	if err != nil {
		return fmt.Errorf("update role for user %s: %w", userID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role for user %s: %w", userID, err)
	}
	if rows == 0 {
		return fmt.Errorf("update role for user %s: %w", userID, auctionerrors.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
