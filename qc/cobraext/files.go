package cobraext

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/relux-works/qclang/qc"
	"golang.org/x/sync/errgroup"
)

// stdinPath names standard input on the command line.
const stdinPath = "-"

// fileResult is one parsed input file.
type fileResult struct {
	Path       string      `json:"path" yaml:"path"`
	Statements []*qc.Query `json:"statements" yaml:"statements"`
}

// collectFiles expands directories in paths into the files below them whose
// extension is in extensions. Files named explicitly are always kept.
// If extensions is empty, all files are kept. Each file appears once, in the
// order it was first reached, so stdin is read at most once.
func collectFiles(paths, extensions []string) ([]string, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		// Accept both ".qc" and "qc".
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[ext] = true
	}

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if key := filepath.Clean(path); !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}
	for _, root := range paths {
		if root == stdinPath {
			add(root)
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if len(extSet) > 0 && !extSet[filepath.Ext(d.Name())] {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == stdinPath {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// parseFiles parses files concurrently, at most env.Jobs at a time. Results
// keep the order of paths. The first failure cancels the remaining work.
func parseFiles(ctx context.Context, env *Env, paths []string, stdin io.Reader) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(env.jobs())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := readInput(path, stdin)
			if err != nil {
				return err
			}
			log := env.Logger.With().Str("file", path).Logger()
			queries, err := qc.ParseFile(text, qc.WithSettings(env.Settings), qc.WithLogger(log))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Debug().Int("statements", len(queries)).Msg("parsed file")
			results[i] = fileResult{Path: path, Statements: queries}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
