package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephlewis42/sshell/commands"
	"github.com/josephlewis42/sshell/core/config"
	"github.com/josephlewis42/sshell/core/logger"
	"github.com/josephlewis42/sshell/core/pipeline"
	"github.com/josephlewis42/sshell/errors"
)

var (
	cfgPath    string
	scriptLine string

	// exitStatus is the status of the last shell run by the root command.
	exitStatus int
)

func loadConfig() (*config.Configuration, error) {
	return config.LoadOrDefault(afero.NewOsFs(), cfgPath)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sshell",
	Short: "Simple shell",
	Long: `A simple shell supporting pipelines, redirection and a single
background job.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := logger.New(configuration.DebugLog)
		if err != nil {
			return err
		}
		defer log.Sync()

		stdio := pipeline.DefaultStdio()
		stdio.Out = cmd.OutOrStdout()
		stdio.Err = cmd.ErrOrStderr()

		reader, err := commands.NewLineReader(cmd.InOrStdin(), stdio.Out, stdio.Err)
		if err != nil {
			return err
		}

		shell := commands.NewShell(configuration, stdio, reader, log)
		defer shell.Close()

		if cmd.Flags().Changed("command") {
			// Already reported by the shell, only the code is left to pass on.
			exitStatus = errors.Code(shell.RunScript(scriptLine))
			return nil
		}

		exitStatus = shell.Run()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the root command with args and returns the process exit code.
// Errors carry their own code, see the errors package.
func execute(args []string) int {
	exitStatus = errors.CodeOk
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return errors.Code(err)
	}
	return exitStatus
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&scriptLine, "command", "c", "", "run a single command line and exit")
}
