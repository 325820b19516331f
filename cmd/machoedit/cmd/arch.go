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

	"github.com/AlecAivazis/survey/v2"
	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/internal/magic"
	"github.com/go-macho-tools/machoedit/pkg/machoedit"
)

func init() {
	rootCmd.AddCommand(extractArchCmd)
	rootCmd.AddCommand(insertArchCmd)
	rootCmd.AddCommand(removeArchCmd)

	extractArchCmd.Flags().IntP("index", "i", -1, "Which slice to extract")
	extractArchCmd.Flags().StringP("output", "o", "", "Path to write the extracted slice to")
	viper.BindPFlag("machoedit.extract-arch.index", extractArchCmd.Flags().Lookup("index"))
	viper.BindPFlag("machoedit.extract-arch.output", extractArchCmd.Flags().Lookup("output"))
	extractArchCmd.MarkZshCompPositionalArgumentFile(1)

	insertArchCmd.Flags().String("from", "", "Donor Mach-O to copy the slice out of")
	insertArchCmd.Flags().IntP("index", "i", -1, "Which donor slice to insert")
	insertArchCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	insertArchCmd.MarkFlagRequired("from")
	viper.BindPFlag("machoedit.insert-arch.from", insertArchCmd.Flags().Lookup("from"))
	viper.BindPFlag("machoedit.insert-arch.index", insertArchCmd.Flags().Lookup("index"))
	viper.BindPFlag("machoedit.insert-arch.overwrite", insertArchCmd.Flags().Lookup("overwrite"))
	insertArchCmd.MarkZshCompPositionalArgumentFile(1)

	removeArchCmd.Flags().IntP("index", "i", -1, "Which slice to remove")
	removeArchCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	viper.BindPFlag("machoedit.remove-arch.index", removeArchCmd.Flags().Lookup("index"))
	viper.BindPFlag("machoedit.remove-arch.overwrite", removeArchCmd.Flags().Lookup("overwrite"))
	removeArchCmd.MarkZshCompPositionalArgumentFile(1)
}

// pickArch prompts for one of c's slices when no --index was supplied.
func pickArch(c *machoedit.Container, message string) int {
	var options []string
	for _, a := range c.Archs {
		options = append(options, fmt.Sprintf("%s %s (%s)",
			magic.CPUName(a.Header.CPU), magic.FileTypeName(a.Header.Type), humanize.Bytes(a.Entry.Size)))
	}
	choice := 0
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	survey.AskOne(prompt, &choice)
	return choice
}

// extractArchCmd represents the extract-arch command
var extractArchCmd = &cobra.Command{
	Use:     "extract-arch <MACHO>",
	Aliases: []string{"x"},
	Short:   "Extract a single slice out of a universal/fat MachO",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}

		c, err := machoedit.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		defer c.Close()

		idx := viper.GetInt("machoedit.extract-arch.index")
		if idx < 0 {
			idx = pickArch(c, "Please select an architecture to extract:")
		}
		if idx >= len(c.Archs) {
			return fmt.Errorf("--index %d out of range: %s has %d slice(s)", idx, machoPath, len(c.Archs))
		}

		outPath := viper.GetString("machoedit.extract-arch.output")
		if len(outPath) == 0 {
			outPath = fmt.Sprintf("%s.%s", machoPath, magic.CPUName(c.Archs[idx].Header.CPU))
		}

		if !c.SaveArchTo(idx, outPath) {
			return fmt.Errorf("failed to save slice %d to %s", idx, outPath)
		}

		log.Infof("Extracted %s slice as %s", magic.CPUName(c.Archs[idx].Header.CPU), outPath)

		return nil
	},
}

// insertArchCmd represents the insert-arch command
var insertArchCmd = &cobra.Command{
	Use:   "insert-arch <MACHO>",
	Short: "Copy a slice from another Mach-O into a universal binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		donorPath := filepath.Clean(viper.GetString("machoedit.insert-arch.from"))
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}
		if _, err := os.Stat(donorPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", donorPath)
		}
		if !confirm(machoPath, viper.GetBool("machoedit.insert-arch.overwrite")) {
			return nil
		}

		donor, err := machoedit.Open(donorPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", donorPath)
		}
		defer donor.Close()

		c, err := machoedit.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		defer c.Close()

		idx := viper.GetInt("machoedit.insert-arch.index")
		if idx < 0 {
			if len(donor.Archs) == 1 {
				idx = 0
			} else {
				idx = pickArch(donor, "Please select the donor architecture to insert:")
			}
		}

		if !c.IsFat() {
			log.Warn("target is a thin MachO; wrapping it in a fat container first")
			if err := c.MakeFat(); err != nil {
				return err
			}
		}
		if err := c.InsertArchFrom(donor, idx); err != nil {
			return err
		}

		log.Infof("Inserted %s slice from %s into %s", magic.CPUName(donor.Archs[idx].Header.CPU), donorPath, machoPath)

		return nil
	},
}

// removeArchCmd represents the remove-arch command
var removeArchCmd = &cobra.Command{
	Use:   "remove-arch <MACHO>",
	Short: "Remove a slice from a universal/fat MachO",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		machoPath := filepath.Clean(args[0])
		if _, err := os.Stat(machoPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s does not exist", machoPath)
		}
		if !confirm(machoPath, viper.GetBool("machoedit.remove-arch.overwrite")) {
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

		idx := viper.GetInt("machoedit.remove-arch.index")
		if idx < 0 {
			idx = pickArch(c, "Please select the architecture to remove:")
		}
		if err := c.RemoveArch(idx); err != nil {
			return err
		}

		log.Infof("Removed slice %d from %s (%d slices remain)", idx, machoPath, len(c.Archs))

		return nil
	},
}
