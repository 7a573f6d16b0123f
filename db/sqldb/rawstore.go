package sqldb

import (
	"embed"
	"fmt"
	"log"
	"path"
	"strings"
)

// RawSQLStore holds the raw statements of every registered group, keyed "group.name"
type RawSQLStore struct {
	stmts map[string]string
}

func NewRawStore() *RawSQLStore {
	return &RawSQLStore{stmts: make(map[string]string)}
}

func (s *RawSQLStore) Set(key string, rawStmt string) {
	s.stmts[key] = rawStmt
}

func (s *RawSQLStore) Get(key string) (string, error) {
	stmt, ok := s.stmts[key]
	if !ok {
		return "", fmt.Errorf("raw sql stmt %q not found", key)
	}
	return stmt, nil
}

type GroupFS struct {
	Group string
	FS    embed.FS
}

var RawStoreRegistry []GroupFS

// RegisterGroup registers an embedded `sql` dir. Call it from an init() of the owning package.
func RegisterGroup(fs embed.FS, group string) {
	RawStoreRegistry = append(RawStoreRegistry, GroupFS{FS: fs, Group: group})
}

// LoadRawStmts fills a store for one dialect.
// `name.<dbtype>` files are used as-is; `name.sql` files are standard SQL with `?`
// placeholders, converted to the dialect, and only used when no dialect file exists.
func LoadRawStmts(dbType string, placeholderPrefix byte) (*RawSQLStore, error) {
	store := NewRawStore()
	standard := map[string]string{}
	for _, groupFS := range RawStoreRegistry {
		files, err := groupFS.FS.ReadDir("sql")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded `sql` dir. %w", err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			filename := f.Name()
			ext := path.Ext(filename)
			key := groupFS.Group + "." + strings.TrimSuffix(filename, ext)
			data, err := groupFS.FS.ReadFile(path.Join("sql", filename))
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", filename, err)
			}
			switch strings.TrimPrefix(ext, ".") {
			case dbType:
				store.Set(key, string(data))
			case "sql":
				standard[key] = ReplaceStaticPlaceholders(string(data), placeholderPrefix)
			}
		}
	}
	for key, stmt := range standard {
		if _, err := store.Get(key); err != nil {
			store.Set(key, stmt)
		}
	}
	log.Printf("[INFO][SQLDB] %d raw sql stmts loaded for %d groups (%s)", len(store.stmts), len(RawStoreRegistry), dbType)
	return store, nil
}
