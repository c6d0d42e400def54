package core

import (
	"errors"
	"testing"
)

func TestValidateDataset(t *testing.T) {
	tests := []struct {
		name    string
		dataset *Dataset
		wantErr error
	}{
		{
			name: "valid dataset",
			dataset: &Dataset{
				ID:          "d1",
				Title:       "Air Pollution",
				Description: "Unknown",
				Publisher:   UnknownPublisher,
				Created:     2019,
			},
			wantErr: nil,
		},
		{
			name: "valid dataset with distributions",
			dataset: &Dataset{
				ID:          "d1",
				Title:       "Air Pollution",
				Description: "Hourly readings",
				Distributions: []Distribution{
					{ID: "r1", URL: "https://example.org/a.csv", Format: "csv"},
				},
			},
			wantErr: nil,
		},
		{
			name:    "nil dataset",
			dataset: nil,
			wantErr: ErrInvalidDataset,
		},
		{
			name:    "empty id",
			dataset: &Dataset{Title: "x", Description: "y"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "empty title",
			dataset: &Dataset{ID: "d1", Description: "y"},
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "empty description",
			dataset: &Dataset{ID: "d1", Title: "x"},
			wantErr: ErrEmptyDescription,
		},
		{
			name:    "implausible year",
			dataset: &Dataset{ID: "d1", Title: "x", Description: "y", Modified: 12},
			wantErr: ErrInvalidYear,
		},
		{
			name: "distribution without id",
			dataset: &Dataset{
				ID: "d1", Title: "x", Description: "y",
				Distributions: []Distribution{{URL: "https://example.org"}},
			},
			wantErr: ErrEmptyID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDataset(tt.dataset)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDataset() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateDataset() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDataset() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidDataset) {
				t.Errorf("ValidateDataset() error = %v, want it to wrap ErrInvalidDataset", err)
			}
		})
	}
}

func TestError_Classification(t *testing.T) {
	cause := errors.New("unbalanced braces")
	err := NewError(ErrTranslation, "extract query", cause)

	if !errors.Is(err, ErrTranslation) {
		t.Errorf("errors.Is(err, ErrTranslation) = false")
	}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrQuery) {
		t.Errorf("errors.Is(err, ErrQuery) = true, want false")
	}
	if got, want := err.Error(), "extract query: translation error: unbalanced braces"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var typed *Error
	if !errors.As(error(err), &typed) || typed.Op != "extract query" {
		t.Errorf("errors.As did not recover the operation")
	}
}
