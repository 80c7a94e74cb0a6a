package main

import (
	"fmt"

	"github.com/alnah/go-epaper/internal/store"
)

// runMigrate applies, rolls back or reports the schema migrations.
func runMigrate(args []string, env *Environment) error {
	flags, action, err := parseMigrateFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	switch action {
	case "up", "down", "version":
	default:
		return fmt.Errorf("%w: unknown migrate action %q (use up, down or version)", ErrUsage, action)
	}

	cfg, err := loadSettings(flags, env)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, env.Stderr)
	if err != nil {
		return err
	}
	st, err := store.Connect(cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	defer func() { _ = st.Close() }()

	switch action {
	case "up":
		err = st.Migrate()
	case "down":
		err = st.MigrateDown()
	}
	if err != nil {
		return err
	}

	version, dirty, err := st.SchemaVersion()
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(env.Stdout, "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(env.Stdout, "schema version %d\n", version)
	return nil
}
