// Package indexer keeps a queryable copy of escrow lifecycle events in a SQL
// database.
package indexer

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gitbounty/core/events"
	"gitbounty/core/types"
	"gitbounty/native/escrow"
)

var ErrNotFound = errors.New("indexer: bounty not found")

// Indexer consumes committed ledger events. It implements events.Emitter.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the sqlite database at dsn and migrates the schema.
func Open(dsn string, log *slog.Logger) (*Indexer, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", dsn, err)
	}
	return New(db, log)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, log *slog.Logger) (*Indexer, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{db: db, logger: log, now: time.Now}, nil
}

// Close releases the underlying connection pool.
func (i *Indexer) Close() error {
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Emit records escrow events. Failures are logged; events never block the
// ledger.
func (i *Indexer) Emit(evt events.Event) {
	wrapped, ok := evt.(events.Ledger)
	if !ok || wrapped.Evt == nil {
		return
	}
	if err := i.Apply(wrapped.Evt); err != nil {
		i.logger.Error("indexer: apply event", slog.String("type", wrapped.Evt.Type), slog.Any("error", err))
	}
}

// Apply folds a single event into the index. Unrelated event types are
// ignored.
func (i *Indexer) Apply(evt *types.Event) error {
	switch evt.Type {
	case escrow.EventTypeEscrowCreated:
		return i.applyCreated(evt.Attributes)
	case escrow.EventTypeEscrowReleased:
		return i.applyReleased(evt.Attributes)
	default:
		return nil
	}
}

func (i *Indexer) applyCreated(attrs map[string]string) error {
	issue, amount, err := parseIssueAmount(attrs)
	if err != nil {
		return err
	}
	bounty := Bounty{
		Address:  attrs["address"],
		RepoHash: attrs["repoHash"],
		Issue:    Uint64(issue),
		Amount:   Uint64(amount),
		Payer:    attrs["payer"],
		Status:   StatusOpen,
	}
	if bounty.Address == "" {
		return errors.New("indexer: created event without address")
	}
	// A released escrow address can be funded again for the same issue; the
	// new row replaces the old one.
	return i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("address = ?", bounty.Address).Delete(&Bounty{}).Error; err != nil {
			return err
		}
		return tx.Create(&bounty).Error
	})
}

func (i *Indexer) applyReleased(attrs map[string]string) error {
	address := attrs["address"]
	refund, err := strconv.ParseUint(attrs["refund"], 10, 64)
	if err != nil {
		return fmt.Errorf("indexer: refund: %w", err)
	}
	releasedAt := i.now().UTC()
	res := i.db.Model(&Bounty{}).Where("address = ?", address).Updates(map[string]any{
		"status":      StatusReleased,
		"recipient":   attrs["recipient"],
		"authority":   attrs["authority"],
		"refund":      Uint64(refund),
		"released_at": releasedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		issue, amount, err := parseIssueAmount(attrs)
		if err != nil {
			return err
		}
		return i.db.Create(&Bounty{
			Address:    address,
			RepoHash:   attrs["repoHash"],
			Issue:      Uint64(issue),
			Amount:     Uint64(amount),
			Status:     StatusReleased,
			Recipient:  attrs["recipient"],
			Authority:  attrs["authority"],
			Refund:     Uint64(refund),
			ReleasedAt: &releasedAt,
		}).Error
	}
	return nil
}

func parseIssueAmount(attrs map[string]string) (uint64, uint64, error) {
	issue, err := strconv.ParseUint(attrs["issue"], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("indexer: issue: %w", err)
	}
	amount, err := strconv.ParseUint(attrs["amount"], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("indexer: amount: %w", err)
	}
	return issue, amount, nil
}

// Get returns the bounty indexed at address.
func (i *Indexer) Get(address string) (*Bounty, error) {
	var bounty Bounty
	err := i.db.Where("address = ?", address).First(&bounty).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bounty, nil
}

// List returns bounties ordered by creation time. An empty status lists all.
func (i *Indexer) List(status BountyStatus) ([]Bounty, error) {
	query := i.db.Order("created_at asc, address asc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var out []Bounty
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ByRepo returns every bounty for a repository hash, ordered by issue.
func (i *Indexer) ByRepo(repoHash string) ([]Bounty, error) {
	var out []Bounty
	err := i.db.Where("repo_hash = ?", repoHash).Order("issue asc").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
