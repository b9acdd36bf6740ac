package database

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func open(path string, models ...interface{}) (*gorm.DB, error) {
	orm, err := gorm.Open(sqlite.Open(path), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true, FullSaveAssociations: true})
	if err != nil {
		return nil, err
	}
	if err := orm.AutoMigrate(models...); err != nil {
		return nil, err
	}
	return orm, nil
}

// AutoMigration opens the user database and the transaction log and migrates both schemas.
func AutoMigration(dbPath, transactionsPath string) (users *gorm.DB, txLogger *gorm.DB, err error) {
	users, err = open(dbPath, &User{})
	if err != nil {
		return nil, nil, err
	}
	if err := ColumnMigrationTasks(users); err != nil {
		return nil, nil, err
	}
	txLogger, err = open(transactionsPath, &Transaction{})
	if err != nil {
		return nil, nil, err
	}
	log.Infof("[database] opened %s and %s", dbPath, transactionsPath)
	return users, txLogger, nil
}

// ColumnMigrationTasks runs data migrations that AutoMigrate can't express.
func ColumnMigrationTasks(db *gorm.DB) error {
	// usernames are matched case insensitively (2024-05-02)
	tx := db.Model(&User{}).Where("username <> LOWER(username)").Update("username", gorm.Expr("LOWER(username)"))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		log.Infof("[database] lower cased %d usernames", tx.RowsAffected)
	}
	return nil
}
