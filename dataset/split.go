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
	"math/rand"
	"sort"

	"github.com/juju/errors"
)

// Split holds out a number of ratings per user for testing. Users with no
// more than holdout ratings are kept entirely in the training set. Users are
// visited in ascending id order and the held-out positions are drawn from a
// generator seeded with seed, so the same input always yields the same split.
// Both outputs keep the relative order of the input.
func Split(ratings []Rating, holdout int, seed int64) (train, test []Rating, err error) {
	if holdout < 0 {
		return nil, nil, errors.NotValidf("holdout %d", holdout)
	}
	positions := make(map[int][]int)
	for i, rating := range ratings {
		positions[rating.UserId] = append(positions[rating.UserId], i)
	}
	users := make([]int, 0, len(positions))
	for userId := range positions {
		users = append(users, userId)
	}
	sort.Ints(users)

	rng := rand.New(rand.NewSource(seed))
	held := make([]bool, len(ratings))
	for _, userId := range users {
		userPositions := positions[userId]
		if len(userPositions) <= holdout {
			continue
		}
		for _, j := range rng.Perm(len(userPositions))[:holdout] {
			held[userPositions[j]] = true
		}
	}

	train = make([]Rating, 0, len(ratings))
	for i, rating := range ratings {
		if held[i] {
			test = append(test, rating)
		} else {
			train = append(train, rating)
		}
	}
	return train, test, nil
}
