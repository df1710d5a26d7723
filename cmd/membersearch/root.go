package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// app holds what every subcommand needs. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	v          *viper.Viper
	configPath string

	cfg *config
	log *logrus.Logger
	db  *gorm.DB
}

func newRootCommand() *cobra.Command {
	a := &app{v: newViper()}

	cmd := &cobra.Command{
		Use:           "membersearch",
		Short:         "Search members with offset pages, keyset windows and bulk updates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	flags.String("driver", "", "database driver: sqlite, mysql or postgres")
	flags.String("dsn", "", "database DSN")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: text or json")

	for key, flag := range map[string]string{
		"database.driver": "driver",
		"database.dsn":    "dsn",
		"log.level":       "log-level",
		"log.format":      "log-format",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newMigrateCommand(a),
		newSeedCommand(a),
		newSearchCommand(a),
		newCursorCommand(a),
		newListCommand(a),
		newTeamsCommand(a),
		newRenameCommand(a),
		newAddAgeCommand(a),
	)

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.v, a.configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	db, err := openDB(cfg.Database, newGORMLogger(log))
	if err != nil {
		return err
	}

	a.cfg, a.log, a.db = cfg, log, db
	a.log.WithFields(logrus.Fields{
		"driver":  cfg.Database.Driver,
		"command": cmd.Name(),
	}).Debug("database opened")

	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}
