package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var fileNamePattern = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// migrationFile is one goose SQL file named <version>_<slug>.sql.
type migrationFile struct {
	Name    string
	Version string
	Slug    string
}

// listSQLFiles returns the .sql files of dir in version order. Files whose
// names do not follow the layout are returned in invalid.
func listSQLFiles(dir string) (files []migrationFile, invalid []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		m := fileNamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			invalid = append(invalid, e.Name())
			continue
		}
		files = append(files, migrationFile{Name: e.Name(), Version: m[1], Slug: m[2]})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, invalid, nil
}

// nextVersion stamps now, moved past the newest existing version so a new
// file always sorts last.
func nextVersion(files []migrationFile, now time.Time) string {
	stamp := now.UTC().Truncate(time.Second)
	if len(files) > 0 {
		latest, err := time.Parse(versionLayout, files[len(files)-1].Version)
		if err == nil && !stamp.After(latest) {
			stamp = latest.Add(time.Second)
		}
	}
	return stamp.Format(versionLayout)
}

func slugify(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
