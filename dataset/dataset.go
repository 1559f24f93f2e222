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
	"fmt"
	"sort"
	"time"

	"github.com/juju/errors"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Rating is a single explicit rating of an item by a user.
type Rating struct {
	UserId    int       `json:"user_id"`
	ItemId    int       `json:"item_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

func (r Rating) String() string {
	return fmt.Sprintf("(%d, %d, %g)", r.UserId, r.ItemId, r.Rating)
}

// Item is the catalog record of a movie.
type Item struct {
	ItemId      int       `json:"item_id"`
	Title       string    `json:"title"`
	ReleaseDate time.Time `json:"release_date"`
	Genres      []string  `json:"genres"`
}

// Year returns the year in the title, or the release year if the title
// carries none.
func (item Item) Year() string {
	if _, year := ParseTitle(item.Title); year != "" {
		return year
	}
	if !item.ReleaseDate.IsZero() {
		return item.ReleaseDate.Format("2006")
	}
	return ""
}

// Items is a read-only catalog indexed by item id.
type Items struct {
	items []Item
	index map[int]int
}

// NewItems creates a catalog. Later duplicates of an item id replace earlier ones.
func NewItems(items []Item) *Items {
	catalog := &Items{index: make(map[int]int, len(items))}
	for _, item := range items {
		if i, exist := catalog.index[item.ItemId]; exist {
			catalog.items[i] = item
			continue
		}
		catalog.index[item.ItemId] = len(catalog.items)
		catalog.items = append(catalog.items, item)
	}
	sort.Slice(catalog.items, func(i, j int) bool {
		return catalog.items[i].ItemId < catalog.items[j].ItemId
	})
	for i, item := range catalog.items {
		catalog.index[item.ItemId] = i
	}
	return catalog
}

func (items *Items) Len() int {
	if items == nil {
		return 0
	}
	return len(items.items)
}

// Get returns the catalog record of an item.
func (items *Items) Get(itemId int) (Item, error) {
	if items != nil {
		if i, exist := items.index[itemId]; exist {
			return items.items[i], nil
		}
	}
	return Item{}, errors.NotFoundf("item %d", itemId)
}

// All returns catalog records ordered by item id.
func (items *Items) All() []Item {
	if items == nil {
		return nil
	}
	return append([]Item(nil), items.items...)
}
