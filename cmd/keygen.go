package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

var keygenKind string

var keygenCmd = &cobra.Command{
	Use:   "keygen [flags]",
	Short: "Generate a key and derive its first address",
	Long: `Generates a new key of the requested kind and derives one address from it.
Examples:
  # Generate a transparent signing key
  orchard-sandbox keygen -k transparent

  # Generate a shielded spending key
  orchard-sandbox keygen -k shielded
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runKeygen(); err != nil {
			logx.Error("KEYGEN CLI", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keygenKind, "kind", "k", "transparent", "key kind: transparent or shielded")
}

func runKeygen() error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	kind := types.KeyKind(keygenKind)
	if kind != types.KeyKindTransparent && kind != types.KeyKindShielded {
		return fmt.Errorf("unknown key kind %q", keygenKind)
	}

	km, err := e.wallet.GenerateKey(kind)
	if err != nil {
		return err
	}
	addrKind := types.AddrKindTransparent
	if kind == types.KeyKindShielded {
		addrKind = types.AddrKindShielded
	}
	addr, err := e.wallet.DeriveAddress(km.ID, addrKind)
	if err != nil {
		return err
	}

	fmt.Printf("key_id:  %s\n", km.ID)
	fmt.Printf("kind:    %s\n", km.Kind)
	fmt.Printf("address: %s\n", addr.Encoded)
	return nil
}
