package core

import (
	"archive/zip"
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const classSuffix = ".class"

// classEntry is the raw bytes of one compiled class inside a release.
type classEntry struct {
	name string
	data []byte
}

// releaseContent holds every class entry of a release in lexical entry order.
type releaseContent struct {
	entries      []classEntry
	lastModified time.Time
}

// readRelease loads a jar/zip archive or walks a directory for class files.
func readRelease(path string) (*releaseContent, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("release path: %w", err)
	}
	var content *releaseContent
	if info.IsDir() {
		content, err = readReleaseDir(path)
	} else {
		content, err = readReleaseArchive(path)
	}
	if err != nil {
		return nil, err
	}
	slices.SortFunc(content.entries, func(a, b classEntry) int { return cmp.Compare(a.name, b.name) })
	if content.lastModified.IsZero() {
		content.lastModified = info.ModTime()
	}
	return content, nil
}

func readReleaseArchive(path string) (*releaseContent, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	content := &releaseContent{}
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s from %s: %w", f.Name, path, err)
		}
		content.entries = append(content.entries, classEntry{name: f.Name, data: data})
		if f.Modified.After(content.lastModified) {
			content.lastModified = f.Modified
		}
	}
	return content, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func readReleaseDir(root string) (*releaseContent, error) {
	content := &releaseContent{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), classSuffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		content.entries = append(content.entries, classEntry{name: filepath.ToSlash(rel), data: data})
		if info.ModTime().After(content.lastModified) {
			content.lastModified = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk release directory %s: %w", root, err)
	}
	return content, nil
}
