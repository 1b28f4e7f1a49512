package main

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// importAssets uploads every regular file under dir as a static asset of the
// given course. Name clashes overwrite the stored asset, matching a re-run
// of the import after files changed.
func (cli *commandLine) importAssets(courseKey, dir string) error {
	parts := strings.SplitN(courseKey, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid course %q; expected ORG/COURSE", courseKey)
	}
	org, course := parts[0], parts[1]

	ctx := context.Background()
	var count int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		ast, err := cli.contentSvc.Save(ctx, org, course, d.Name(), contentType, f)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		logger.Printf("imported %s (%d bytes)", ast.Location, ast.Length)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Printf("imported %d assets into %s/%s", count, org, course)
	return nil
}
