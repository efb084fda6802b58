package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathanvouilloz/extensionReview/cmd"
	"github.com/jonathanvouilloz/extensionReview/internal/code"
)

var genCount int

// GenCodesCmd représente la commande 'gen-codes'. Elle génère des codes
// projet en masse sans toucher à la base, pratique pour pré-provisionner.
var GenCodesCmd = &cobra.Command{
	Use:   "gen-codes",
	Short: "Generate a batch of unique project codes",
	Long: `Generates a batch of unique project codes and prints them one per line,
followed by the birthday-collision probability of a keyspace that size.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		generator := code.NewGenerator()

		codes, err := generator.GenerateMany(genCount)
		if err != nil {
			fmt.Printf("Error generating codes: %v\n", err)
			os.Exit(1)
		}

		for _, c := range codes {
			fmt.Println(c)
		}
		fmt.Fprintf(os.Stderr, "Collision probability for %d codes: %.2e\n",
			genCount, code.CollisionProbability(genCount))
	},
}

func init() {
	GenCodesCmd.Flags().IntVarP(&genCount, "count", "c", 10, "How many codes to generate")
	cmd.RootCmd.AddCommand(GenCodesCmd)
}
