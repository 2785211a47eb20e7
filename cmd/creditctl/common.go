package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"credit_analysis/pkg/core/rules"
	"credit_analysis/pkg/core/store"
	"credit_analysis/pkg/core/validate"
)

// Store backends accepted by --store / CREDIT_STORE_BACKEND.
const (
	backendMemory   = "memory"
	backendFile     = "file"
	backendPostgres = "postgres"
)

func loadRules() (*rules.Set, error) {
	dir := viper.GetString("rules.dir")
	if dir == "" {
		return rules.Default()
	}
	return rules.LoadFromDirectory(dir, logger)
}

// openRepository returns the configured repository and a close func.
func openRepository(ctx context.Context) (store.Repository, func(), error) {
	switch backend := viper.GetString("store.backend"); backend {
	case "", backendMemory:
		return store.NewMemoryRepo(), func() {}, nil
	case backendFile:
		repo, err := store.NewFileRepo(viper.GetString("store.dir"))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case backendPostgres:
		dbURL := viper.GetString("database.url")
		if dbURL == "" {
			return nil, nil, errors.New("postgres store requires --database-url or CREDIT_DATABASE_URL")
		}
		if err := store.InitDB(ctx, dbURL); err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store.NewAssessmentRepo(store.GetPool()), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// reportValidation prints one line per field error and reports whether err
// was a validation failure.
func reportValidation(w io.Writer, err error) bool {
	var verr *validate.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	fmt.Fprintf(w, "input rejected (%d):\n", len(verr.Fields))
	for _, f := range verr.Fields {
		fmt.Fprintf(w, "  - %s\n", f.String())
	}
	return true
}
