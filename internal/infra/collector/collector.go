package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/karrick/godirwalk"
	"github.com/rs/zerolog/log"

	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

const (
	// DefaultMaxFileKB skips generated or vendored blobs that would only
	// waste model tokens.
	DefaultMaxFileKB = 256
	// DefaultMaxFiles bounds a single run.
	DefaultMaxFiles = 500
)

// directories that never contain first-party source
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	".idea":        {},
	".vscode":      {},
}

// Collector gathers reviewable source files from a directory tree or a
// remote git repository.
type Collector struct {
	MaxFileKB int
	MaxFiles  int
}

func New(maxFileKB, maxFiles int) *Collector {
	if maxFileKB <= 0 {
		maxFileKB = DefaultMaxFileKB
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Collector{MaxFileKB: maxFileKB, MaxFiles: maxFiles}
}

// FromGit shallow-clones repoURL into a temp dir and collects its files.
// The returned cleanup removes the clone and must be called by the caller.
func (c *Collector) FromGit(ctx context.Context, repoURL string) ([]domain.SourceFile, func(), error) {
	tmp, err := os.MkdirTemp("", "codeiq-clone-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }

	_, err = git.PlainCloneContext(ctx, tmp, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("clone %s: %w", repoURL, err)
	}

	files, err := c.FromDir(tmp)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return files, cleanup, nil
}

// FromDir walks root and returns every supported source file, ordered by
// path so runs are deterministic.
func (c *Collector) FromDir(root string) ([]domain.SourceFile, error) {
	var files []domain.SourceFile
	maxBytes := int64(c.MaxFileKB) * 1024

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			name := de.Name()
			if de.IsDir() {
				if _, skip := skipDirs[name]; skip {
					return filepath.SkipDir
				}
				if strings.HasPrefix(name, ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if len(files) >= c.MaxFiles {
				return filepath.SkipDir
			}

			lang := domain.LanguageFromPath(path)
			if lang == domain.LangOther {
				return nil
			}

			info, err := os.Stat(path)
			if err != nil {
				return nil
			}
			if info.Size() == 0 || info.Size() > maxBytes {
				log.Debug().Str("path", path).Int64("bytes", info.Size()).Msg("skipping oversized or empty file")
				return nil
			}

			content, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("unreadable source file")
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			files = append(files, domain.SourceFile{
				Path:     filepath.ToSlash(rel),
				Content:  string(content),
				Language: lang,
			})
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			log.Warn().Err(err).Str("path", path).Msg("walk error, skipping node")
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
