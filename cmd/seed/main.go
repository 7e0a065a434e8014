package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chervince/mon-projet/internal/model"
	"github.com/chervince/mon-projet/internal/store"
	"github.com/chervince/mon-projet/pkg/config"
	"github.com/chervince/mon-projet/pkg/database"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds the default admin account and a couple of demo merchants.
// Idempotent: existing rows are left alone.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	conf, err := config.Load("fidelisation")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&conf.DB)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	if err := database.MigrateModels(db,
		&model.User{},
		&model.Merchant{},
		&model.Credit{},
		&model.Voucher{},
		&model.ScanLog{},
	); err != nil {
		fmt.Printf("Error migrating models: %v\n", err)
		os.Exit(1)
	}

	st := store.New(db)
	ctx := context.Background()

	if err := seedAdmin(ctx, st); err != nil {
		fmt.Printf("Error seeding admin account: %v\n", err)
		os.Exit(1)
	}

	if err := seedMerchants(ctx, st); err != nil {
		fmt.Printf("Error seeding merchants: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Seed done")
}

func seedAdmin(ctx context.Context, st *store.Store) error {
	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@neith.nc"
	}
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	_, err := st.UserByEmail(ctx, adminEmail)
	if err == nil {
		fmt.Println("Admin account already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := st.CreateUser(ctx, &model.User{
		Email:    adminEmail,
		Name:     "Administrateur Neith",
		Password: string(hashed),
		Role:     "admin",
	}); err != nil {
		return err
	}

	fmt.Printf("Admin account created: %s\n", adminEmail)
	fmt.Println("Change the password in production!")
	return nil
}

func seedMerchants(ctx context.Context, st *store.Store) error {
	demoMerchants := []model.Merchant{
		{
			Name:             "Lulu's Café",
			Address:          "Centre ville, Nouméa",
			CreditPercentage: 10.0,
			Threshold:        2000.0,
			ValidityMonths:   6,
			MerchantCode:     "LULU",
		},
		{
			Name:             "Super Marché NC",
			Address:          "Zone industrielle, Nouméa",
			CreditPercentage: 5.0,
			Threshold:        5000.0,
			ValidityMonths:   3,
			MerchantCode:     "SMNC",
		},
	}

	for _, m := range demoMerchants {
		_, err := st.MerchantByCode(ctx, m.MerchantCode)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m.QRCode = fmt.Sprintf("fidelisation://merchant/%s", uuid.New().String())
		if err := st.CreateMerchant(ctx, &m); err != nil {
			return err
		}
		fmt.Printf("Merchant created: %s (%s)\n", m.Name, m.MerchantCode)
	}

	return nil
}
