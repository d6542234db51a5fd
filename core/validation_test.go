package core

import (
	"errors"
	"testing"
)

func TestValidatePassage(t *testing.T) {
	tests := []struct {
		name    string
		passage *Passage
		wantErr error
	}{
		{
			name: "valid passage",
			passage: &Passage{
				Id:            1,
				Text:          "The grid operates at 50Hz.",
				File:          "manual.md",
				SectionId:     2,
				SequenceIndex: 0,
			},
			wantErr: nil,
		},
		{
			name: "valid passage without vector",
			passage: &Passage{
				Id:     1,
				Text:   "content",
				File:   "a.md",
				Vector: nil,
			},
			wantErr: nil,
		},
		{
			name:    "nil passage",
			passage: nil,
			wantErr: ErrInvalidPassage,
		},
		{
			name:    "empty text",
			passage: &Passage{Id: 1, File: "a.md"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty file",
			passage: &Passage{Id: 1, Text: "content"},
			wantErr: ErrEmptyFile,
		},
		{
			name:    "negative sequence index",
			passage: &Passage{Id: 1, Text: "content", File: "a.md", SequenceIndex: -1},
			wantErr: ErrNegativeSequence,
		},
		{
			name:    "negative page",
			passage: &Passage{Id: 1, Text: "content", File: "a.md", Page: -3},
			wantErr: ErrNegativePage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassage(tt.passage)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePassage() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassage() error = %v, want %v", err, tt.wantErr)
			}
			if tt.passage != nil && !errors.Is(err, ErrInvalidPassage) {
				t.Errorf("ValidatePassage() error not wrapped in ErrInvalidPassage: %v", err)
			}
		})
	}
}

func TestValidateSection(t *testing.T) {
	tests := []struct {
		name    string
		section *Section
		wantErr error
	}{
		{
			name:    "valid section",
			section: &Section{File: "a.md", HeadingPath: []string{"Intro"}, Text: "body"},
			wantErr: nil,
		},
		{
			name:    "nil section",
			section: nil,
			wantErr: ErrInvalidSection,
		},
		{
			name:    "empty text",
			section: &Section{File: "a.md"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty file",
			section: &Section{Text: "body"},
			wantErr: ErrEmptyFile,
		},
		{
			name:    "negative page",
			section: &Section{File: "a.md", Text: "body", Page: -1},
			wantErr: ErrNegativePage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSection(tt.section)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSection() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSection() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
