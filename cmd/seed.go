package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/config"
	"github.com/kmutua/feedback-gateway/internal/db"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(db.SQLOpts{
			DSN:             cfg.MySQL.DSN,
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo customers...")

		if err := seedCustomers(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedCustomers inserts deterministic demo customers (idempotent on phone).
func seedCustomers(dbx *sqlx.DB) error {
	customers := []model.Customer{
		{FirstName: "Jane", SecondName: "", LastName: "Doe", Phone: "254712345678"},
		{FirstName: "John", SecondName: "Kip", LastName: "Mwangi", Phone: "254722000111"},
		{FirstName: "Amina", SecondName: "", LastName: "", Phone: "254733999222"},
	}

	// idempotent upsert based on phone (UNIQUE); first write wins on names
	const q = `
INSERT INTO customers
    (first_name, second_name, last_name, phone, created_at)
VALUES
    (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    id = id
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, c := range customers {
		if _, err := tx.Exec(q, c.FirstName, c.SecondName, c.LastName, c.Phone, now); err != nil {
			return fmt.Errorf("insert customer %q: %w", c.Phone, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit customers: %w", err)
	}
	return nil
}
