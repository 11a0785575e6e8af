// cmd/root.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	outputPath                string
	prosaPath                 string
	jobs                      int
	verifyOnlyID              int
	cleanOutputFolder         bool
	deleteCertificates        bool
	saveStats                 bool
	boundedTardinessAllowed   bool
	testSchedulability        bool
	repeatDeclaration         bool
	verifyWithoutDependencies bool
	noCheck                   bool
	logLevel                  string
)

var rootCmd = &cobra.Command{
	Use:   "poet <input-file>",
	Short: "Compute response-time bounds and emit machine-checked schedulability certificates",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		opts := runOptions{
			inputPath:                 args[0],
			outputPath:                outputPath,
			prosaPath:                 prosaPath,
			jobs:                      jobs,
			verifyOnlyID:              verifyOnlyID,
			hasVerifyOnlyID:           verifyOnlyID >= 0,
			cleanOutputFolder:         cleanOutputFolder,
			deleteCertificates:        deleteCertificates,
			saveStats:                 saveStats,
			boundedTardinessAllowed:   boundedTardinessAllowed,
			testSchedulability:        testSchedulability,
			repeatDeclaration:         repeatDeclaration,
			verifyWithoutDependencies: verifyWithoutDependencies,
			noCheck:                   noCheck,
		}

		if err := runPoet(opts); err != nil {
			if ee, ok := err.(*exitError); ok {
				os.Exit(ee.code)
			}
			logrus.Errorf("%v", err)
			os.Exit(1)
		}
	},
}

// Execute runs the root command, exiting the process with a nonzero status
// on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "Folder to write certificates and stats to (default: certificates in <input-folder>/certificates, stats in <input-folder>)")
	flags.StringVarP(&prosaPath, "prosa", "p", "", "Path to a local checkout of the Prosa library")
	flags.IntVarP(&jobs, "jobs", "j", 1, "Number of certificates to compile/verify in parallel")
	flags.IntVarP(&verifyOnlyID, "id", "i", -1, "Only compile/verify the certificate for the task with this id (certificates are still generated for every task)")
	flags.BoolVarP(&cleanOutputFolder, "clean", "c", false, "Remove stale generated files from the output folder before running")
	flags.BoolVarP(&deleteCertificates, "delete", "d", false, "Delete the output folder after compiling and verifying")
	flags.BoolVarP(&saveStats, "stats", "s", false, "Save a stats.yaml summary to the output folder if -o is given, else to the input file's folder")
	flags.BoolVarP(&boundedTardinessAllowed, "bounded-tardiness", "b", false, "Accept a schedulable-with-bounded-tardiness task set instead of requiring all deadlines to be met")
	flags.BoolVarP(&testSchedulability, "test-schedulability", "t", false, "Only report schedulability, without generating certificates")
	flags.BoolVarP(&repeatDeclaration, "repeat-declaration", "r", false, "Repeat the task-set declaration in every certificate instead of sharing one file")
	flags.BoolVarP(&verifyWithoutDependencies, "verify-without-dependencies", "v", false, "Skip coqchk's transitive dependency check")
	flags.BoolVarP(&noCheck, "no-check", "n", false, "Generate certificates but skip compiling and verifying them")
	flags.StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
}
