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
	"sort"

	"github.com/juju/errors"
)

// Index is a bijection between external ids and dense indices in [0, Len()).
// Indices follow ascending id order.
type Index struct {
	ids    []int
	lookup map[int]int
}

// NewIndex builds an index over the distinct ids.
func NewIndex(ids []int) *Index {
	idx := &Index{lookup: make(map[int]int)}
	for _, id := range ids {
		if _, exist := idx.lookup[id]; !exist {
			idx.lookup[id] = 0
			idx.ids = append(idx.ids, id)
		}
	}
	sort.Ints(idx.ids)
	for i, id := range idx.ids {
		idx.lookup[id] = i
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.ids)
}

func (idx *Index) Contains(id int) bool {
	_, exist := idx.lookup[id]
	return exist
}

// ToIndex converts an id to its dense index.
func (idx *Index) ToIndex(id int) (int, error) {
	if i, exist := idx.lookup[id]; exist {
		return i, nil
	}
	return -1, errors.NotFoundf("id %d", id)
}

// ToId converts a dense index back to its id.
func (idx *Index) ToId(index int) (int, error) {
	if index < 0 || index >= len(idx.ids) {
		return 0, errors.NotFoundf("index %d", index)
	}
	return idx.ids[index], nil
}

// Ids returns all ids in index order.
func (idx *Index) Ids() []int {
	return append([]int(nil), idx.ids...)
}
