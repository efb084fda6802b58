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
	"github.com/jonathanvouilloz/extensionReview/internal/middleware"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
)

var (
	createName  string
	createOwner string
)

// CreateProjectCmd représente la commande 'create-project'
var CreateProjectCmd = &cobra.Command{
	Use:   "create-project",
	Short: "Create a new feedback project and print its access code",
	Long: `Creates a feedback project directly against the database and prints
the generated access code. Useful for bootstrapping without the HTTP API.`,
	Run: runCreateProject,
}

func init() {
	CreateProjectCmd.Flags().StringVarP(&createName, "name", "n", "", "Project name (required)")
	CreateProjectCmd.Flags().StringVarP(&createOwner, "owner", "o", "", "Owner email (required)")
	CreateProjectCmd.MarkFlagRequired("name")
	CreateProjectCmd.MarkFlagRequired("owner")
	cmd.RootCmd.AddCommand(CreateProjectCmd)
}

// runCreateProject exécute la logique pour la commande create-project
func runCreateProject(cobraCmd *cobra.Command, args []string) {
	if !middleware.IsValidEmail(createOwner) {
		fmt.Println("Error: owner must be a valid email address")
		os.Exit(1)
	}

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

	projectRepo := repository.NewProjectRepository(db)
	projectService := services.NewProjectService(projectRepo, code.NewGenerator())

	summary, err := projectService.Create(models.CreateProjectRequest{
		Name:       createName,
		OwnerEmail: createOwner,
	})
	if err != nil {
		fmt.Printf("Error creating project: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Project created: %s\n", summary.Name)
	fmt.Printf("Access code: %s\n", summary.Code)
	fmt.Printf("Expires at: %s\n", summary.ExpiresAt.Format("2006-01-02 15:04:05"))
}
