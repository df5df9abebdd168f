package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/viznest/viznest-backend/config"
	"github.com/viznest/viznest-backend/internal/app/model"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/db"
	"github.com/viznest/viznest-backend/internal/report"
	"github.com/viznest/viznest-backend/pkg/util"
	"gorm.io/gorm"
)

func main() {
	productsFile := flag.String("products", "", "XLSX catalog to import (see report.ImportProducts for the columns)")
	adminEmail := flag.String("admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email of the admin account to create")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the admin account")
	assumeYes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	if *productsFile == "" && *adminEmail == "" {
		log.Fatal("Usage: go run cmd/seed/main.go -products catalog.xlsx [-admin-email a@b.c -admin-password secret] [-yes]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if *adminEmail != "" {
		if err := seedAdmin(repository.NewUserRepository(db.GetDB()), *adminEmail, *adminPassword); err != nil {
			log.Fatal("Failed to seed admin:", err)
		}
	}

	if *productsFile != "" {
		if err := seedProducts(repository.NewProductRepository(db.GetDB()), *productsFile, *assumeYes); err != nil {
			log.Fatal("Failed to seed products:", err)
		}
	}
}

// seedAdmin creates the admin account, or promotes an existing user with that email
func seedAdmin(userRepo repository.UserRepository, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := userRepo.FindByEmail(email)
	switch {
	case err == nil:
		if existing.Role == model.RoleAdmin {
			fmt.Printf("Admin %s already exists\n", email)
			return nil
		}
		existing.Role = model.RoleAdmin
		if err := userRepo.Update(existing); err != nil {
			return err
		}
		fmt.Printf("Promoted %s to admin\n", email)
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := util.CheckPassword(password); err != nil {
		return err
	}
	hashed, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Name:         "Admin",
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	fmt.Printf("Created admin %s (id %d)\n", email, admin.ID)
	return nil
}

func seedProducts(productRepo repository.ProductRepository, path string, assumeYes bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", path)
	products, skipped, err := report.ImportProducts(f)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Printf("  skipped row %d: %s\n", s.Row, s.Reason)
	}
	fmt.Printf("Total products to import: %d\n", len(products))
	if len(products) == 0 {
		return nil
	}

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return nil
		}
	}

	imported := 0
	for i := range products {
		if err := productRepo.Create(&products[i]); err != nil {
			fmt.Printf("  failed to import %q: %v\n", products[i].Name, err)
			continue
		}
		imported++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d/%d\n", imported, len(products))
	return nil
}
