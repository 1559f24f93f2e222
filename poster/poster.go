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

package poster

import (
	"context"
	"net/url"

	"github.com/cineai/cineai/dataset"
)

const (
	placeholderURL = "https://via.placeholder.com/300x450/1a1a1a/6366f1?text="
	errorURL       = "https://via.placeholder.com/300x450/1a1a1a/ff4b4b?text=Error"
)

// Lookup finds the poster image of a movie by its catalog title.
type Lookup interface {
	// Poster returns an image URL. On failure it returns ErrorURL() and the error.
	Poster(ctx context.Context, title string) (string, error)
}

// PlaceholderURL returns a placeholder image captioned with the clean title.
func PlaceholderURL(title string) string {
	cleanTitle, _ := dataset.ParseTitle(title)
	return placeholderURL + url.QueryEscape(cleanTitle)
}

// ErrorURL returns the placeholder image shown when a lookup fails.
func ErrorURL() string {
	return errorURL
}

// Placeholder serves placeholder images without network access.
type Placeholder struct{}

func (Placeholder) Poster(_ context.Context, title string) (string, error) {
	return PlaceholderURL(title), nil
}
