package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication helpers",
	}

	cmd.AddCommand(newAuthTokenCmd())
	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	var flags struct {
		principal string
		secret    string
		expires   time.Duration
	}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a dev-mode JWT token and save it to the active profile",
		Long: "Mint an HS256 JWT for development and testing against a server " +
			"started with JWT_SECRET. The token is written to the active profile " +
			"so subsequent commands pick it up automatically.",
		Example: `  # Generate a token for data_team with the local dev secret
  synth auth token --principal data_team --secret dev-secret

  # Generate a short-lived token
  synth auth token --principal ci --secret dev-secret --expires 1h`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			signed, err := mintToken(flags.principal, flags.secret, flags.expires)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}

			if _, err := saveToActiveProfile(func(p *Profile) {
				p.Token = signed
			}); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.principal, "principal", "", "Principal name (JWT sub claim)")
	cmd.Flags().StringVar(&flags.secret, "secret", "", "JWT signing secret (HS256)")
	cmd.Flags().DurationVar(&flags.expires, "expires", 24*time.Hour, "Token expiry duration")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func mintToken(principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": principal,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
