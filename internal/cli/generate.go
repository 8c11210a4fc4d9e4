package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keywheel/keywheel/internal/keystore"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var (
		alg    string
		curve  string
		kid    string
		public bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a signing key and print it as a JWK",
		Long: `Generate a signing key pair and print it to stdout as a JWK.

By default the private key is printed, for feeding into a key file that
keywheel imports at startup. Use --public to print the redacted public form
instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := keystore.New()

			var opts []keystore.GenerateOption
			if kid != "" {
				opts = append(opts, keystore.WithKeyID(kid))
			}
			if curve != "" {
				opts = append(opts, keystore.WithCurve(curve))
			}

			if _, err := store.Generate(cmd.Context(), keystore.Algorithm(alg), opts...); err != nil {
				return err
			}

			keys, err := store.Export(!public)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(keys[0], "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal key: %w", err)
			}

			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&alg, "alg", "ES256", "signing algorithm (RS256, PS256, ES256, EdDSA, ...)")
	cmd.Flags().StringVar(&curve, "curve", "", "curve selector for EdDSA-family keys")
	cmd.Flags().StringVar(&kid, "kid", "", "key ID (default: random)")
	cmd.Flags().BoolVar(&public, "public", false, "print the redacted public form")

	return cmd
}
