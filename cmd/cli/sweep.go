package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/cmd"
	"github.com/jonathanvouilloz/extensionReview/internal/code"
	"github.com/jonathanvouilloz/extensionReview/internal/config"
	"github.com/jonathanvouilloz/extensionReview/internal/notify"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

// SweepCmd représente la commande 'sweep'. Elle exécute manuellement les
// passes de maintenance que le serveur planifie en arrière-plan.
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one maintenance pass: expire lapsed projects, delete orphan screenshots",
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Échec du chargement de la configuration : %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
		}
		defer sqlDB.Close()

		store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatalf("Échec de l'initialisation du stockage : %v", err)
		}

		projectRepo := repository.NewProjectRepository(db)
		commentRepo := repository.NewCommentRepository(db)
		projectService := services.NewProjectService(projectRepo, code.NewGenerator())
		commentService := services.NewCommentService(commentRepo, projectRepo, store)
		feedbackService := services.NewFeedbackService(
			projectService, commentService, commentRepo, store, notify.NewWebhookNotifier())

		expired, err := feedbackService.SweepExpired()
		if err != nil {
			log.Fatalf("Failed to sweep expired projects: %v", err)
		}
		orphans, err := feedbackService.SweepOrphanBlobs()
		if err != nil {
			log.Fatalf("Failed to sweep orphan screenshots: %v", err)
		}

		fmt.Printf("Expired projects flipped: %d\n", expired)
		fmt.Printf("Orphan screenshots removed: %d\n", orphans)
	},
}

func init() {
	cmd.RootCmd.AddCommand(SweepCmd)
}
