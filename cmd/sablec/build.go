package main

import (
	"os"

	"sable/lower"
	"sable/report"
	"sable/resolve"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Compile a unit to LLVM IR",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

// runBuild compiles the built-in demonstration program through the full
// pipeline and writes the resulting IR to the profile's output path.
// TODO: replace the built-in program with the parsed source unit once the
// frontend lands.
func runBuild(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	profile, err := loadProfile(dir)
	if err != nil {
		return err
	}

	defs := demoUnit()

	topScope, table, errs := resolve.Resolve(defs)
	if errs != nil {
		report.DisplayDiagnostics(errs)
		os.Exit(1)
	}

	mod, errs := lower.Compile(defs, topScope, table)
	if errs != nil {
		report.DisplayDiagnostics(errs)
		os.Exit(1)
	}

	if err := os.WriteFile(profile.OutPath, []byte(mod.String()), 0o644); err != nil {
		return err
	}

	report.DisplaySuccess("compiled `%s` to `%s`", profile.Name, profile.OutPath)
	return nil
}
