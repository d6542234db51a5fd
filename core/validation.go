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

import "fmt"

// ValidatePassage validates a Passage according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - File must not be empty
//   - SequenceIndex must not be negative
//   - Page must not be negative (0 means unpaginated)
//
// NOT validated (populated at index-build time):
//   - Vector (can be empty until the embedding step runs)
//   - TokenCount (0 is valid for passages indexed without length stats)
func ValidatePassage(passage *Passage) error {
	if passage == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if passage.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyText)
	}

	if passage.File == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyFile)
	}

	if passage.SequenceIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrNegativeSequence)
	}

	if passage.Page < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrNegativePage)
	}

	return nil
}

// ValidateSection validates a Section according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - File must not be empty
//   - Page must not be negative
func ValidateSection(section *Section) error {
	if section == nil {
		return fmt.Errorf("%w: section is nil", ErrInvalidSection)
	}

	if section.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyText)
	}

	if section.File == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyFile)
	}

	if section.Page < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrNegativePage)
	}

	return nil
}
