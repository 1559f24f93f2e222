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
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/juju/errors"
	"golang.org/x/text/encoding/charmap"
)

// Genres of the MovieLens 100K catalog in u.item column order.
var Genres = []string{
	"unknown", "Action", "Adventure", "Animation", "Children's", "Comedy", "Crime",
	"Documentary", "Drama", "Fantasy", "Film-Noir", "Horror", "Musical", "Mystery",
	"Romance", "Sci-Fi", "Thriller", "War", "Western",
}

// Load reads a MovieLens dataset directory. Both the 100K layout (u.data,
// u.item) and the CSV layout (ratings.csv, movies.csv) are recognized.
func Load(dir string) ([]Rating, *Items, error) {
	if _, err := os.Stat(filepath.Join(dir, "u.data")); err == nil {
		return LoadMovieLens(dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "ratings.csv")); err == nil {
		return LoadCSV(dir)
	}
	return nil, nil, errors.NotFoundf("MovieLens dataset in %s", dir)
}

// LoadMovieLens reads the MovieLens 100K files u.data and u.item.
func LoadMovieLens(dir string) ([]Rating, *Items, error) {
	ratings, err := loadRatings(filepath.Join(dir, "u.data"), '\t', false)
	if err != nil {
		return nil, nil, err
	}
	items, err := loadItems(filepath.Join(dir, "u.item"))
	if err != nil {
		return nil, nil, err
	}
	return ratings, items, nil
}

// LoadCSV reads ratings.csv and movies.csv from the newer MovieLens releases.
func LoadCSV(dir string) ([]Rating, *Items, error) {
	ratings, err := loadRatings(filepath.Join(dir, "ratings.csv"), ',', true)
	if err != nil {
		return nil, nil, err
	}
	items, err := loadMoviesCSV(filepath.Join(dir, "movies.csv"))
	if err != nil {
		return nil, nil, err
	}
	return ratings, items, nil
}

func openFile(name string) (*os.File, error) {
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil, errors.NotFoundf("file %s", name)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}

func loadRatings(name string, sep rune, header bool) ([]Rating, error) {
	f, err := openFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(bufio.NewReader(f))
	reader.Comma = sep
	reader.FieldsPerRecord = 4
	reader.ReuseRecord = true
	var ratings []Rating
	for lineNumber := 1; ; lineNumber++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.NewNotValid(err, name)
		}
		if header && lineNumber == 1 {
			continue
		}
		rating, err := parseRating(record)
		if err != nil {
			return nil, errors.Annotatef(err, "%s:%d", name, lineNumber)
		}
		ratings = append(ratings, rating)
	}
	if len(ratings) == 0 {
		return nil, errors.NotValidf("empty ratings in %s", name)
	}
	return ratings, nil
}

func parseRating(record []string) (Rating, error) {
	userId, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return Rating{}, errors.NotValidf("user id %q", record[0])
	}
	itemId, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil {
		return Rating{}, errors.NotValidf("item id %q", record[1])
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return Rating{}, errors.NotValidf("rating %q", record[2])
	}
	if value < MinRating || value > MaxRating {
		return Rating{}, errors.NotValidf("rating %v out of [%v, %v]", value, MinRating, MaxRating)
	}
	timestamp, err := ParseTimestamp(record[3])
	if err != nil {
		return Rating{}, errors.NotValidf("timestamp %q", record[3])
	}
	return Rating{UserId: userId, ItemId: itemId, Rating: value, Timestamp: timestamp}, nil
}

// ParseTimestamp accepts unix seconds or any layout known to dateparse.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if seconds, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(seconds, 0).UTC(), nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, errors.Trace(err)
	}
	return t, nil
}

// loadItems reads u.item, which is pipe separated and encoded in ISO-8859-1.
func loadItems(name string) (*Items, error) {
	f, err := openFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(f))
	var items []Item
	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 5+len(Genres) {
			return nil, errors.NotValidf("%s:%d has %d fields", name, lineNumber, len(fields))
		}
		itemId, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.NotValidf("%s:%d item id %q", name, lineNumber, fields[0])
		}
		item := Item{ItemId: itemId, Title: fields[1], Genres: []string{}}
		if fields[2] != "" {
			if item.ReleaseDate, err = time.Parse("02-Jan-2006", fields[2]); err != nil {
				if item.ReleaseDate, err = dateparse.ParseAny(fields[2]); err != nil {
					return nil, errors.NotValidf("%s:%d release date %q", name, lineNumber, fields[2])
				}
			}
		}
		for i, flag := range fields[5 : 5+len(Genres)] {
			if flag == "1" {
				item.Genres = append(item.Genres, Genres[i])
			}
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return NewItems(items), nil
}

// loadMoviesCSV reads movies.csv (movieId,title,genres) with pipe separated genres.
func loadMoviesCSV(name string) (*Items, error) {
	f, err := openFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	reader := csv.NewReader(bufio.NewReader(f))
	reader.FieldsPerRecord = 3
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewNotValid(err, name)
	}
	items := make([]Item, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		itemId, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, errors.NotValidf("%s:%d item id %q", name, i+1, record[0])
		}
		item := Item{ItemId: itemId, Title: record[1], Genres: []string{}}
		if record[2] != "(no genres listed)" && record[2] != "" {
			item.Genres = strings.Split(record[2], "|")
		}
		items = append(items, item)
	}
	return NewItems(items), nil
}

// ParseTitle splits "Title (Year)" into its clean title and year. Text before
// the first opening parenthesis is the title and the last parenthesized group
// is the year. Titles without parentheses are returned unchanged.
func ParseTitle(title string) (string, string) {
	if !strings.Contains(title, "(") || !strings.Contains(title, ")") {
		return strings.TrimSpace(title), ""
	}
	clean := strings.TrimSpace(title[:strings.Index(title, "(")])
	last := title[strings.LastIndex(title, "(")+1:]
	if end := strings.Index(last, ")"); end >= 0 {
		last = last[:end]
	}
	return clean, strings.TrimSpace(last)
}
