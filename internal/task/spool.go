package task

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stashsuite/stashweb/internal/backend"
)

// archiveExt maps an archive format name to its filename extension. Any
// unrecognised format falls back to zip, matching the submission-side
// normalisation.
func archiveExt(format string) string {
	if strings.EqualFold(format, "tar.gz") {
		return ".tar.gz"
	}
	return ".zip"
}

// writeArchive drains the restore stream into an archive at path. The file
// is created with owner-only permissions since restored data may be
// sensitive. On error the partial file is removed.
func writeArchive(path string, format string, stream backend.RestoreStream) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if strings.EqualFold(format, "tar.gz") {
		return packTarGz(f, stream)
	}
	return packZip(f, stream)
}

func packZip(w io.Writer, stream backend.RestoreStream) error {
	zw := zip.NewWriter(w)
	for {
		entry, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			zw.Close()
			return err
		}
		ew, err := zw.Create(normalizeEntryPath(entry.Path))
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := io.Copy(ew, bytes.NewReader(entry.Data)); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func packTarGz(w io.Writer, stream backend.RestoreStream) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	fail := func(err error) error {
		tw.Close()
		gz.Close()
		return err
	}
	for {
		entry, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}
		hdr := &tar.Header{
			Name: normalizeEntryPath(entry.Path),
			Mode: 0o600,
			Size: entry.Size,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fail(err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			return fail(err)
		}
	}
	if err := tw.Close(); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// normalizeEntryPath strips a leading slash so archive members extract
// relative to the destination directory.
func normalizeEntryPath(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(p), "/")
}
