package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate JWT_SECRET, COOKIE_HASH_KEY and COOKIE_BLOCK_KEY values",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := make([]byte, 32)
			hash := make([]byte, 32)
			block := make([]byte, 32)
			for _, b := range [][]byte{secret, hash, block} {
				if _, err := rand.Read(b); err != nil {
					return err
				}
			}
			fmt.Fprintf(os.Stdout, "export JWT_SECRET=%s\n", base64.StdEncoding.EncodeToString(secret))
			fmt.Fprintf(os.Stdout, "export COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(os.Stdout, "export COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
