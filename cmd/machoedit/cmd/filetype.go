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
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-macho/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-macho-tools/machoedit/internal/magic"
)

var fileTypes = map[string]types.HeaderFileType{
	"object":     types.MH_OBJECT,
	"execute":    types.MH_EXECUTE,
	"fvmlib":     types.MH_FVMLIB,
	"core":       types.MH_CORE,
	"preload":    types.MH_PRELOAD,
	"dylib":      types.MH_DYLIB,
	"dylinker":   types.MH_DYLINKER,
	"bundle":     types.MH_BUNDLE,
	"dylib_stub": types.MH_DYLIB_STUB,
	"dsym":       types.MH_DSYM,
	"kext":       types.MH_KEXT_BUNDLE,
}

func fileTypeNames() []string {
	names := make([]string, 0, len(fileTypes))
	for n := range fileTypes {
		names = append(names, n)
	}
	return names
}

func init() {
	rootCmd.AddCommand(setFileTypeCmd)

	setFileTypeCmd.Flags().IntP("arch", "a", -1, "Which slice to operate on")
	setFileTypeCmd.Flags().StringP("type", "t", "", "New Mach-O file type")
	setFileTypeCmd.Flags().BoolP("overwrite", "f", false, "Overwrite file without confirmation")
	setFileTypeCmd.MarkFlagRequired("type")
	viper.BindPFlag("machoedit.set-filetype.arch", setFileTypeCmd.Flags().Lookup("arch"))
	viper.BindPFlag("machoedit.set-filetype.type", setFileTypeCmd.Flags().Lookup("type"))
	viper.BindPFlag("machoedit.set-filetype.overwrite", setFileTypeCmd.Flags().Lookup("overwrite"))
	setFileTypeCmd.MarkZshCompPositionalArgumentFile(1)
}

// setFileTypeCmd represents the set-filetype command
var setFileTypeCmd = &cobra.Command{
	Use:   "set-filetype <MACHO>",
	Short: "Change a slice's Mach-O file type",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}
		return fileTypeNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}

		name := strings.ToLower(viper.GetString("machoedit.set-filetype.type"))
		t, ok := fileTypes[name]
		if !ok {
			return fmt.Errorf("unsupported file type: %s; must be one of: %s", name, strings.Join(fileTypeNames(), ", "))
		}

		machoPath := filepath.Clean(args[0])
		if !confirm(machoPath, viper.GetBool("machoedit.set-filetype.overwrite")) {
			return nil
		}

		c, a, err := openArch(machoPath, viper.GetInt("machoedit.set-filetype.arch"))
		if err != nil {
			return err
		}
		defer c.Close()

		old := a.Header.Type
		if err := c.ChangeFileType(a, t); err != nil {
			return err
		}

		log.Infof("Changed file type of %s slice from %s to %s",
			magic.CPUName(a.Header.CPU), magic.FileTypeName(old), magic.FileTypeName(t))

		return nil
	},
}
