/*
Copyright © 2024-2026 go-macho-tools

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/internal/magic"
)

func init() {
	rootCmd.AddCommand(stripSignatureCmd)

	stripSignatureCmd.Flags().IntP("arch", "a", -1, "Which slice to operate on")
	stripSignatureCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	viper.BindPFlag("machoedit.strip-signature.arch", stripSignatureCmd.Flags().Lookup("arch"))
	viper.BindPFlag("machoedit.strip-signature.overwrite", stripSignatureCmd.Flags().Lookup("overwrite"))
	stripSignatureCmd.MarkZshCompPositionalArgumentFile(1)
}

// stripSignatureCmd represents the strip-signature command
var stripSignatureCmd = &cobra.Command{
	Use:     "strip-signature <MACHO>",
	Aliases: []string{"unsign"},
	Short:   "Remove a slice's code signature and repair __LINKEDIT",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if !confirm(machoPath, viper.GetBool("machoedit.strip-signature.overwrite")) {
			return nil
		}

		c, a, err := openArch(machoPath, viper.GetInt("machoedit.strip-signature.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		removed, err := c.RemoveCodeSignature(a)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s slice of %s has no removable code signature "+
				"(it must carry LC_CODE_SIGNATURE and a trailing __LINKEDIT segment)",
				magic.CPUName(a.Header.CPU), machoPath)
		}

		log.Infof("Stripped code signature from %s slice of %s", magic.CPUName(a.Header.CPU), machoPath)

		return nil
	},
}
