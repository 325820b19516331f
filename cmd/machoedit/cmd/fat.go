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
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/pkg/machoedit"
)

func init() {
	rootCmd.AddCommand(makeFatCmd)
	rootCmd.AddCommand(makeThinCmd)

	makeFatCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	viper.BindPFlag("machoedit.make-fat.overwrite", makeFatCmd.Flags().Lookup("overwrite"))
	makeFatCmd.MarkZshCompPositionalArgumentFile(1)

	makeThinCmd.Flags().IntP("index", "i", -1, "Which slice to keep")
	makeThinCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	viper.BindPFlag("machoedit.make-thin.index", makeThinCmd.Flags().Lookup("index"))
	viper.BindPFlag("machoedit.make-thin.overwrite", makeThinCmd.Flags().Lookup("overwrite"))
	makeThinCmd.MarkZshCompPositionalArgumentFile(1)
}

// makeFatCmd represents the make-fat command
var makeFatCmd = &cobra.Command{
	Use:   "make-fat <MACHO>",
	Short: "Wrap a thin Mach-O in a single-slice universal container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}
		if !confirm(machoPath, viper.GetBool("machoedit.make-fat.overwrite")) {
			return nil
		}

		c, err := machoedit.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		defer c.Close()

		if c.IsFat() {
			return fmt.Errorf("%s is already a universal/fat MachO", machoPath)
		}
		if err := c.MakeFat(); err != nil {
			return err
		}

		log.Infof("Wrapped %s in a fat container (%d bytes)", machoPath, c.FileSize())

		return nil
	},
}

// makeThinCmd represents the make-thin command
var makeThinCmd = &cobra.Command{
	Use:   "make-thin <MACHO>",
	Short: "Strip the universal container, keeping a single slice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}
		if !confirm(machoPath, viper.GetBool("machoedit.make-thin.overwrite")) {
			return nil
		}

		c, err := machoedit.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		defer c.Close()

		if !c.IsFat() {
			return fmt.Errorf("%s is not a universal/fat MachO", machoPath)
		}

		idx := viper.GetInt("machoedit.make-thin.index")
		if idx < 0 {
			idx = pickArch(c, "Please select the architecture to keep:")
		}
		if err := c.MakeThin(idx); err != nil {
			return err
		}

		log.Infof("Thinned %s to a single %d byte slice", machoPath, c.FileSize())

		return nil
	},
}
