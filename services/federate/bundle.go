// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package federate

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"codeberg.org/forgeflux/starchart/modules/log"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mholt/archiver/v3"
	"gopkg.in/yaml.v3"
)

// Bundle writes the export tree as a tar.gz archive next to the bundle path
// and moves it into place once complete
func (e *Exporter) Bundle(ctx context.Context) (string, error) {
	if err := e.CreateDirIfNotExists(filepath.Dir(e.bundlePath)); err != nil {
		return "", err
	}
	tmpPath := filepath.Join(filepath.Dir(e.bundlePath), fmt.Sprintf(".%s.tar.gz", uuid.NewString()))
	if err := writeBundle(ctx, tmpPath, e.root); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, e.bundlePath); err != nil {
		_ = os.Remove(tmpPath)
		return "", ioFault("rename", e.bundlePath, err)
	}
	if info, err := os.Stat(e.bundlePath); err == nil {
		log.Info("Wrote federation bundle %s (%s)", e.bundlePath, humanize.IBytes(uint64(info.Size())))
	}
	return e.bundlePath, nil
}

func writeBundle(ctx context.Context, target, root string) error {
	out, err := os.Create(target)
	if err != nil {
		return ioFault("create", target, err)
	}
	defer out.Close()

	w := archiver.NewTarGz()
	if err := w.Create(out); err != nil {
		return ioFault("archive", target, err)
	}
	if err := addRecursive(ctx, w, "", root); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return ioFault("archive", target, err)
	}
	return ioFault("sync", target, out.Sync())
}

func addFile(w archiver.Writer, filePath, absPath string) error {
	file, err := os.Open(absPath)
	if err != nil {
		return ioFault("open", absPath, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return ioFault("stat", absPath, err)
	}

	return ioFault("archive", absPath, w.Write(archiver.File{
		FileInfo: archiver.FileInfo{
			FileInfo:   info,
			CustomName: filePath,
		},
		ReadCloser: file,
	}))
}

// addRecursive adds the content of absPath below insidePath. Only
// directories and regular files are added.
func addRecursive(ctx context.Context, w archiver.Writer, insidePath, absPath string) error {
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return ioFault("read", absPath, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		currentAbsPath := filepath.Join(absPath, entry.Name())
		currentInsidePath := path.Join(insidePath, entry.Name())
		if entry.IsDir() {
			if err := addFile(w, currentInsidePath, currentAbsPath); err != nil {
				return err
			}
			if err := addRecursive(ctx, w, currentInsidePath, currentAbsPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := addFile(w, currentInsidePath, currentAbsPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadBundle reads back the documents of a bundle written by Bundle
func ReadBundle(bundlePath string) (*Snapshot, error) {
	snapshot := &Snapshot{}
	r := archiver.NewTarGz()
	err := r.Walk(bundlePath, func(f archiver.File) error {
		if f.IsDir() {
			return nil
		}
		header, ok := f.Header.(*tar.Header)
		if !ok {
			return fmt.Errorf("unexpected header %T", f.Header)
		}
		return snapshot.add(header.Name, f)
	})
	if err != nil {
		return nil, ioFault("read bundle", bundlePath, err)
	}
	return snapshot, nil
}

func (s *Snapshot) add(name string, r io.Reader) error {
	parts := strings.Split(path.Clean(name), "/")
	n := len(parts)
	if !strings.HasSuffix(name, documentExt) {
		return nil
	}

	// <scheme>/<host>/...
	var doc any
	switch {
	case n == 3 && parts[2] == instanceFile:
		instance := &Instance{}
		s.Instances = append(s.Instances, instance)
		doc = instance
	case n == 4 && parts[2] == usersDir:
		u := &User{}
		s.Users = append(s.Users, u)
		doc = u
	case n == 5 && parts[2] == repositoriesDir:
		repo := &Repository{}
		s.Repositories = append(s.Repositories, repo)
		doc = repo
	default:
		log.Warn("Skipping unknown bundle entry %s", name)
		return nil
	}
	return yaml.NewDecoder(r).Decode(doc)
}
