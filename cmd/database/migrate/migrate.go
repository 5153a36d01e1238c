package migration

import (
	"Larder-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.IngredientStack{}); err != nil {
		log.Fatalf("Error migrating ingredient stack database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.FoodPortion{}); err != nil {
		log.Fatalf("Error migrating food portion database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
