package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/errors"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// DirectoryAnalysis classifies every JPEG file in a directory. Files are
// processed by a bounded worker pool; each worker owns its buffers end to
// end, the interpreter itself serializes invocations.
func DirectoryAnalysis(ctx context.Context, settings *conf.Settings, dir string) error {
	sn, err := sevnet.NewSevNet(settings)
	if err != nil {
		return err
	}
	defer sn.Delete()

	files, err := collectImageFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No JPEG files found in %s\n", dir)
		return nil
	}

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				getLogger().Warn("Failed to close datastore", "error", err)
			}
		}()
	}

	fmt.Printf("Analyzing %d files in %s\n", len(files), dir)
	start := time.Now()

	var saveMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.NumCPU()/2))

	for _, file := range files {
		g.Go(func() error {
			data, err := os.ReadFile(file) //nolint:gosec // G304: path comes from directory listing
			if err != nil {
				return errors.New(err).
					Component("analysis").
					Category(errors.CategoryFileIO).
					Context("input_file", file).
					Build()
			}

			pipeline := New(settings, sn, nil)

			fileStart := time.Now()
			result, err := pipeline.ProcessImage(gctx, data)
			if err != nil {
				return err
			}
			elapsed := time.Since(fileStart)

			printResult(settings, filepath.Base(file), result, elapsed)

			if store != nil {
				classification, scores := NewRecord(settings, result, filepath.Base(file), elapsed)
				saveMu.Lock()
				err = store.Save(&classification, scores)
				saveMu.Unlock()
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Analyzed %d files in %v\n", len(files), time.Since(start).Round(time.Millisecond))
	return nil
}

// collectImageFiles lists JPEG files directly inside dir, sorted by name.
func collectImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("directory", dir).
			Build()
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
