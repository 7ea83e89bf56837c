package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// ValidateDir checks every migration in dir and reports all problems at once:
// file naming, unique versions, the goose Up and Down sections and balanced
// statement blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, invalid, err := listSQLFiles(dir)
	if err != nil {
		return err
	}

	var errs error
	for _, name := range invalid {
		errs = multierr.Append(errs, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name))
	}
	if len(files) == 0 && len(invalid) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	for i, f := range files {
		if i > 0 && files[i-1].Version == f.Version {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", f.Name, f.Version, files[i-1].Name))
		}
		raw, err := os.ReadFile(filepath.Join(dir, f.Name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		errs = multierr.Append(errs, checkSections(f.Name, string(raw)))
	}
	return errs
}

func checkSections(name, body string) error {
	var errs error
	upAt := strings.Index(body, "-- +goose Up")
	downAt := strings.Index(body, "-- +goose Down")
	switch {
	case upAt < 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing -- +goose Up", name))
	case downAt < 0:
		errs = multierr.Append(errs, fmt.Errorf("%s: missing -- +goose Down", name))
	case downAt < upAt:
		errs = multierr.Append(errs, fmt.Errorf("%s: Down section precedes Up", name))
	}
	begins := strings.Count(body, "-- +goose StatementBegin")
	ends := strings.Count(body, "-- +goose StatementEnd")
	if begins != ends {
		errs = multierr.Append(errs, fmt.Errorf("%s: %d StatementBegin for %d StatementEnd", name, begins, ends))
	}
	return errs
}
