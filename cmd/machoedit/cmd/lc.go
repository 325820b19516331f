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
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/pkg/machoedit"
)

func init() {
	rootCmd.AddCommand(lcCmd)
	lcCmd.AddCommand(lcListCmd)
	lcCmd.AddCommand(lcMoveCmd)
	lcCmd.AddCommand(lcRemoveCmd)
	lcCmd.AddCommand(lcInsertCmd)

	lcCmd.PersistentFlags().IntP("arch", "a", -1, "Which slice to operate on")
	viper.BindPFlag("machoedit.lc.arch", lcCmd.PersistentFlags().Lookup("arch"))

	lcMoveCmd.Flags().Int("from", -1, "Index of the load command to move")
	lcMoveCmd.Flags().Int("to", -1, "Index to move it to")
	lcMoveCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	lcMoveCmd.MarkFlagRequired("from")
	lcMoveCmd.MarkFlagRequired("to")
	viper.BindPFlag("machoedit.lc.move.from", lcMoveCmd.Flags().Lookup("from"))
	viper.BindPFlag("machoedit.lc.move.to", lcMoveCmd.Flags().Lookup("to"))
	viper.BindPFlag("machoedit.lc.move.overwrite", lcMoveCmd.Flags().Lookup("overwrite"))

	lcRemoveCmd.Flags().IntP("index", "i", -1, "Index of the load command to remove")
	lcRemoveCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	lcRemoveCmd.MarkFlagRequired("index")
	viper.BindPFlag("machoedit.lc.remove.index", lcRemoveCmd.Flags().Lookup("index"))
	viper.BindPFlag("machoedit.lc.remove.overwrite", lcRemoveCmd.Flags().Lookup("overwrite"))

	lcInsertCmd.Flags().StringP("payload-file", "p", "", "File holding the raw load-command bytes to insert")
	lcInsertCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	lcInsertCmd.MarkFlagRequired("payload-file")
	viper.BindPFlag("machoedit.lc.insert.payload-file", lcInsertCmd.Flags().Lookup("payload-file"))
	viper.BindPFlag("machoedit.lc.insert.overwrite", lcInsertCmd.Flags().Lookup("overwrite"))
}

// lcCmd represents the lc command group
var lcCmd = &cobra.Command{
	Use:   "lc",
	Short: "Inspect and rewrite a slice's load-command table",
}

// openArch opens machoPath and resolves the slice a command's --arch
// flag names, prompting when the flag was left unset on a fat file.
func openArch(machoPath string, idx int) (*machoedit.Container, *machoedit.Arch, error) {
	if _, err := os.Stat(machoPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("file %s does not exist", machoPath)
	}
	c, err := machoedit.Open(machoPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", machoPath)
	}

	if idx < 0 {
		if len(c.Archs) == 1 {
			idx = 0
		} else {
			idx = pickArch(c, "Please select an architecture:")
		}
	}
	if idx >= len(c.Archs) {
		c.Close()
		return nil, nil, fmt.Errorf("--arch %d out of range: %s has %d slice(s)", idx, machoPath, len(c.Archs))
	}
	return c, c.Archs[idx], nil
}

// lcListCmd represents the lc list command
var lcListCmd = &cobra.Command{
	Use:   "list <MACHO>",
	Short: "List a slice's load commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		c, a, err := openArch(filepath.Clean(args[0]), viper.GetInt("machoedit.lc.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IDX\tCMD\tSIZE\tOFFSET")
		for i, lc := range a.LoadCommands {
			fmt.Fprintf(w, "%d\t%s\t%d\t%#x\n", i, lc.Cmd, lc.CmdSize, lc.FileOffset)
		}
		return w.Flush()
	},
}

// lcMoveCmd represents the lc move command
var lcMoveCmd = &cobra.Command{
	Use:   "move <MACHO>",
	Short: "Move a load command to another position in the table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if !confirm(machoPath, viper.GetBool("machoedit.lc.move.overwrite")) {
			return nil
		}

		c, a, err := openArch(machoPath, viper.GetInt("machoedit.lc.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		from := viper.GetInt("machoedit.lc.move.from")
		to := viper.GetInt("machoedit.lc.move.to")
		if err := c.MoveLoadCommand(a, from, to); err != nil {
			return err
		}

		log.Infof("Moved load command %d to position %d", from, to)

		return nil
	},
}

// lcRemoveCmd represents the lc remove command
var lcRemoveCmd = &cobra.Command{
	Use:   "remove <MACHO>",
	Short: "Remove a load command from the table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if !confirm(machoPath, viper.GetBool("machoedit.lc.remove.overwrite")) {
			return nil
		}

		c, a, err := openArch(machoPath, viper.GetInt("machoedit.lc.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		idx := viper.GetInt("machoedit.lc.remove.index")
		if idx < 0 || idx >= len(a.LoadCommands) {
			return fmt.Errorf("--index %d out of range: slice has %d load commands", idx, len(a.LoadCommands))
		}
		removed := a.LoadCommands[idx].Cmd
		if err := c.RemoveLoadCommand(a, idx); err != nil {
			return err
		}

		log.Infof("Removed %s (index %d); %d commands remain", removed, idx, len(a.LoadCommands))
		log.Warn("structural edits invalidate any existing code signature")

		return nil
	},
}

// lcInsertCmd represents the lc insert command
var lcInsertCmd = &cobra.Command{
	Use:   "insert <MACHO>",
	Short: "Append a raw load command to the table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if !confirm(machoPath, viper.GetBool("machoedit.lc.insert.overwrite")) {
			return nil
		}

		payload, err := os.ReadFile(viper.GetString("machoedit.lc.insert.payload-file"))
		if err != nil {
			return errors.Wrap(err, "failed to read payload")
		}

		c, a, err := openArch(machoPath, viper.GetInt("machoedit.lc.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.InsertLoadCommand(a, payload); err != nil {
			return err
		}

		last := a.LoadCommands[len(a.LoadCommands)-1]
		log.Infof("Inserted %s at index %d", last.Cmd, len(a.LoadCommands)-1)
		log.Warn("structural edits invalidate any existing code signature")

		return nil
	},
}
