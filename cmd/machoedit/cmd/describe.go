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
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/internal/magic"
	"github.com/go-macho-tools/machoedit/pkg/machoedit"
)

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.MarkZshCompPositionalArgumentFile(1)
}

// describeCmd represents the describe command
var describeCmd = &cobra.Command{
	Use:     "describe <MACHO>",
	Aliases: []string{"d", "info"},
	Short:   "Print the structure of a Mach-O or universal binary",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
		color.NoColor = !viper.GetBool("color")

		machoPath := filepath.Clean(args[0])
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}
		if ok, err := magic.IsMachO(machoPath); !ok {
			return err
		}

		c, err := machoedit.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		defer c.Close()

		fmt.Println(c.Describe())

		return nil
	},
}
