// Package server contient la commande Cobra qui lance le serveur HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jonathanvouilloz/extensionReview/cmd"
	"github.com/jonathanvouilloz/extensionReview/internal/api"
	"github.com/jonathanvouilloz/extensionReview/internal/code"
	"github.com/jonathanvouilloz/extensionReview/internal/config"
	"github.com/jonathanvouilloz/extensionReview/internal/middleware"
	"github.com/jonathanvouilloz/extensionReview/internal/models"
	"github.com/jonathanvouilloz/extensionReview/internal/notify"
	"github.com/jonathanvouilloz/extensionReview/internal/repository"
	"github.com/jonathanvouilloz/extensionReview/internal/services"
	"github.com/jonathanvouilloz/extensionReview/internal/storage"
	"github.com/jonathanvouilloz/extensionReview/internal/sweeper"
)

// RunServerCmd représente la commande 'run-server' de Cobra.
// C'est le point d'entrée pour lancer le serveur de l'application.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Lance le serveur API de collecte de feedback et les processus de fond.",
	Long: `Cette commande initialise la base de données et le stockage des captures,
configure les APIs, démarre le balayeur périodique (expiration des projets,
captures orphelines), puis lance le serveur HTTP.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg := cmd.Cfg
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				log.Fatalf("Échec du chargement de la configuration : %v", err)
			}
		}

		// Initialiser la base de données
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Échec de la connexion à la base de données : %v", err)
		}

		// Migration automatique des modèles
		if err := db.AutoMigrate(&models.Project{}, &models.Comment{}); err != nil {
			log.Fatalf("Échec de la migration de la base de données : %v", err)
		}

		// Initialiser le stockage des captures d'écran
		store, err := buildStore(cfg)
		if err != nil {
			log.Fatalf("Échec de l'initialisation du stockage : %v", err)
		}

		// Initialiser les repositories
		projectRepo := repository.NewProjectRepository(db)
		commentRepo := repository.NewCommentRepository(db)
		log.Println("Repositories initialisés.")

		// Initialiser les services métiers
		projectService := services.NewProjectService(projectRepo, code.NewGenerator())
		commentService := services.NewCommentService(commentRepo, projectRepo, store)
		feedbackService := services.NewFeedbackService(
			projectService, commentService, commentRepo, store, notify.NewWebhookNotifier())
		log.Println("Services métiers initialisés.")

		// Initialiser et lancer le balayeur périodique.
		sw := sweeper.NewSweeper(feedbackService, cfg.SweepInterval())
		go sw.Start()
		log.Printf("Balayeur démarré avec un intervalle de %v.", cfg.SweepInterval())

		// Configurer le routeur Gin, la chaîne de middlewares et les handlers.
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimitMax, cfg.RateLimitWindow())
		handler := api.NewHandler(feedbackService, store, cfg)
		router := api.SetupRoutes(handler, limiter, cfg)
		log.Println("Routes API configurées.")

		// Créer le serveur HTTP Gin
		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		// Démarrer le serveur Gin dans une goroutine anonyme pour ne pas bloquer.
		go func() {
			log.Printf("Démarrage du serveur sur %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Échec du démarrage du serveur : %v", err)
			}
		}()

		// Gérer l'arrêt propre du serveur (graceful shutdown).
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		<-quit
		log.Println("Signal d'arrêt reçu. Arrêt du serveur...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Arrêt forcé du serveur : %v", err)
		}

		log.Println("Serveur arrêté proprement.")
	},
}

// buildStore choisit le backend de stockage des captures selon la
// configuration : répertoire local ou bucket OSS.
func buildStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case "oss":
		return storage.NewOSSStore(cfg.Storage.Endpoint, cfg.Storage.KeyID,
			cfg.Storage.KeySecret, cfg.Storage.Bucket)
	case "local", "":
		return storage.NewLocalStore(cfg.Storage.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
