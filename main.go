package main

import (
	"log"

	"github.com/inkpress/inkpress/config"
	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/routes"
	"github.com/inkpress/inkpress/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(
		&models.User{},
		&models.RefreshToken{},
		&models.Post{},
		&models.Comment{},
		&models.Category{},
	)
	defer config.CloseDatabase()

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("server listening on :%s", cfg.AppPort)
	if err := utils.Serve(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server error: %v", err)
	}
}
