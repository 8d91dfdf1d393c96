// Package postgres embeds SQL migration files.
package postgres

import (
	"embed"
	"io/fs"
	"sort"
)

// SubjectFS contains the identity store migrations.
//
//go:embed subject/*.sql
var SubjectFS embed.FS

// SubjectDir is the directory within SubjectFS where migrations live.
const SubjectDir = "subject"

// File es una migración ya leída.
type File struct {
	Name string
	SQL  string
}

// Files devuelve las migraciones ordenadas por nombre.
func Files() ([]File, error) {
	entries, err := fs.ReadDir(SubjectFS, SubjectDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	out := make([]File, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(SubjectFS, SubjectDir+"/"+n)
		if err != nil {
			return nil, err
		}
		out = append(out, File{Name: n, SQL: string(b)})
	}
	return out, nil
}
