// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateDataset validates a normalized Dataset according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Title and Description must not be empty
//   - Created and Modified must be zero or a plausible year
//
// NOT validated:
//   - Publisher (UnknownPublisher is a valid value)
//   - Distributions (a dataset may have none)
func ValidateDataset(d *Dataset) error {
	if d == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}

	if d.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyID)
	}

	if d.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyTitle)
	}

	if d.Description == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyDescription)
	}

	for _, year := range []int{d.Created, d.Modified} {
		if !IsValidYear(year) {
			return fmt.Errorf("%w: %w: %d", ErrInvalidDataset, ErrInvalidYear, year)
		}
	}

	for i, dist := range d.Distributions {
		if dist.ID == "" {
			return fmt.Errorf("%w: distribution %d: %w", ErrInvalidDataset, i, ErrEmptyID)
		}
	}

	return nil
}

// IsValidYear accepts zero (unknown) or a year between 1000 and next year.
func IsValidYear(year int) bool {
	if year == 0 {
		return true
	}
	return year >= 1000 && year <= time.Now().Year()+1
}
