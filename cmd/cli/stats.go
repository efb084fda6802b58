package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/cmd"
	"github.com/jonathanvouilloz/extensionReview/internal/code"
	"github.com/jonathanvouilloz/extensionReview/internal/config"
	apperrors "github.com/jonathanvouilloz/extensionReview/internal/errors"
	"github.com/jonathanvouilloz/extensionReview/internal/notify"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
)

// StatsCmd représente la commande 'stats'
var StatsCmd = &cobra.Command{
	Use:   "stats [project-code]",
	Short: "Get comment statistics for a project",
	Long:  `Get comment statistics (totals by status and priority) for the provided project code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

// runStats exécute la logique pour la commande stats
func runStats(cobraCmd *cobra.Command, args []string) {
	projectCode := args[0]

	// Charger la configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Échec du chargement de la configuration : %v", err)
	}

	// Initialiser la base de données
	db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
	if err != nil {
		log.Fatalf("Échec de la connexion à la base de données : %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Échec de l'obtention de la base de données SQL sous-jacente: %v", err)
	}
	defer sqlDB.Close()

	// Initialiser les repositories et services nécessaires
	projectRepo := repository.NewProjectRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Fatalf("Échec de l'initialisation du stockage : %v", err)
	}
	projectService := services.NewProjectService(projectRepo, code.NewGenerator())
	commentService := services.NewCommentService(commentRepo, projectRepo, store)
	feedbackService := services.NewFeedbackService(
		projectService, commentService, commentRepo, store, notify.NewWebhookNotifier())

	stats, err := feedbackService.Stats(projectCode)
	if err != nil {
		switch err {
		case apperrors.ErrInvalidProjectCode:
			fmt.Printf("Error: '%s' is not a valid project code\n", projectCode)
		case apperrors.ErrProjectNotFound:
			fmt.Printf("Error: Project '%s' not found or expired\n", projectCode)
		default:
			fmt.Printf("Error retrieving statistics: %v\n", err)
		}
		os.Exit(1)
	}

	// Afficher les résultats
	fmt.Printf("Statistiques pour le projet: %s\n", projectCode)
	fmt.Printf("Total de commentaires: %d\n", stats.TotalComments)
	fmt.Println("Par statut:")
	for status, count := range stats.CommentsByStatus {
		fmt.Printf("  %-12s %d\n", status, count)
	}
	fmt.Println("Par priorité:")
	for priority, count := range stats.CommentsByPriority {
		fmt.Printf("  %-12s %d\n", priority, count)
	}
}
