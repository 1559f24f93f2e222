// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cineai/cineai/base/log"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// BuiltInDatasets maps dataset names to download locations.
var BuiltInDatasets = map[string]string{
	"ml-100k":         "https://files.grouplens.org/datasets/movielens/ml-100k.zip",
	"ml-latest-small": "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip",
}

// DefaultDatasetDir returns ~/.cineai/dataset.
func DefaultDatasetDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Logger().Warn("failed to get home directory", zap.Error(err))
		return filepath.Join(os.TempDir(), "cineai", "dataset")
	}
	return filepath.Join(home, ".cineai", "dataset")
}

// DownloadBuiltIn downloads and extracts a built-in dataset into dir unless
// it is already there. It returns the directory holding the dataset files.
func DownloadBuiltIn(ctx context.Context, name, dir string) (string, error) {
	src, exist := BuiltInDatasets[name]
	if !exist {
		return "", errors.NotFoundf("built-in dataset %s", name)
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	zipFileName, err := downloadFromUrl(ctx, src, filepath.Join(dir, "temp"))
	if err != nil {
		return "", err
	}
	defer os.Remove(zipFileName)
	if _, err := unzip(zipFileName, dir); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.NotFoundf("%s in %s", name, zipFileName)
	}
	return path, nil
}

// downloadFromUrl downloads file from URL.
func downloadFromUrl(ctx context.Context, src, dst string) (string, error) {
	log.Logger().Info("download dataset", zap.String("source", src), zap.String("destination", dst))
	tokens := strings.Split(src, "/")
	fileName := filepath.Join(dst, tokens[len(tokens)-1])
	if err := os.MkdirAll(dst, os.ModePerm); err != nil {
		return "", errors.Trace(err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", errors.Trace(err)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return "", errors.Annotatef(err, "download %s", src)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", errors.Errorf("download %s: %s", src, response.Status)
	}
	output, err := os.Create(fileName)
	if err != nil {
		return "", errors.Trace(err)
	}
	defer output.Close()
	bar := progressbar.DefaultBytes(response.ContentLength, "Downloading "+tokens[len(tokens)-1])
	if _, err = io.Copy(io.MultiWriter(output, bar), response.Body); err != nil {
		return "", errors.Annotatef(err, "download %s", src)
	}
	return fileName, nil
}

// unzip zip file.
func unzip(src, dst string) ([]string, error) {
	var fileNames []string
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer r.Close()
	for _, f := range r.File {
		filePath := filepath.Join(dst, f.Name)
		// Check for ZipSlip. More Info: http://bit.ly/2MsjAWE
		if !strings.HasPrefix(filePath, filepath.Clean(dst)+string(os.PathSeparator)) {
			return nil, errors.NotValidf("%s: illegal file path", filePath)
		}
		fileNames = append(fileNames, filePath)
		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(filePath, os.ModePerm); err != nil {
				return nil, errors.Trace(err)
			}
			continue
		}
		if err = extractFile(f, filePath); err != nil {
			return nil, err
		}
	}
	return fileNames, nil
}

func extractFile(f *zip.File, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Trace(err)
	}
	defer rc.Close()
	outFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return errors.Trace(err)
	}
	if _, err = io.Copy(outFile, rc); err != nil {
		_ = outFile.Close()
		return errors.Trace(err)
	}
	return errors.Trace(outFile.Close())
}
