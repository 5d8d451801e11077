package indexer

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// BountyStatus tracks where an escrow is in its lifecycle.
type BountyStatus string

const (
	StatusOpen     BountyStatus = "open"
	StatusReleased BountyStatus = "released"
)

// Bounty is the indexed view of one escrow account.
type Bounty struct {
	Address    string       `gorm:"primaryKey"`
	RepoHash   string       `gorm:"index"`
	Issue      Uint64       `gorm:"type:text;index"`
	Amount     Uint64       `gorm:"type:text;not null"`
	Payer      string       `gorm:"index"`
	Status     BountyStatus `gorm:"index;not null"`
	Recipient  string
	Authority  string
	Refund     Uint64       `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ReleasedAt *time.Time
}

// uint64Width is len("18446744073709551615").
const uint64Width = 20

// Uint64 is a full-range uint64 column. database/sql refuses values with the
// high bit set, so it is stored as zero padded decimal text, which keeps
// ORDER BY numeric.
type Uint64 uint64

// Value implements driver.Valuer.
func (u Uint64) Value() (driver.Value, error) {
	return fmt.Sprintf("%0*d", uint64Width, uint64(u)), nil
}

// Scan implements sql.Scanner.
func (u *Uint64) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		*u = 0
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("indexer: negative uint64 column %d", v)
		}
		*u = Uint64(v)
		return nil
	default:
		return fmt.Errorf("indexer: cannot scan %T into Uint64", src)
	}
	parsed, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("indexer: uint64 column: %w", err)
	}
	*u = Uint64(parsed)
	return nil
}

// AutoMigrate ensures the schema exists.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Bounty{})
}
