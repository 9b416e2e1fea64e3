package repository

import (
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Entities lists every table the repositories use, in creation order.
func Entities() []interface{} {
	return []interface{}{
		&ProfileEntity{},
		&GroupEntity{},
		&GroupMemberEntity{},
		&TransactionEntity{},
		&TransactionSplitEntity{},
		&BudgetEntity{},
		&AchievementEntity{},
		&UserAchievementEntity{},
		&InvitationEntity{},
	}
}

// OpenTestDB opens an in-memory sqlite database with the schema migrated,
// wrapped as a read/write pg.DB.
func OpenTestDB(t testing.TB) *pg.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))

	return pg.Wrap(db, db)
}
