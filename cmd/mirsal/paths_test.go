package main

import (
	"errors"
	"testing"

	"github.com/tfkr-ae/mirsal/domain"
)

func TestPathFor(t *testing.T) {
	tests := []struct {
		name   string
		key    domain.Key
		target pathTarget
		want   string
	}{
		{
			name: "top level key",
			key:  domain.KeyProjects,
			want: "/v1/projects",
		},
		{
			name:   "project key",
			key:    domain.KeyForms,
			target: pathTarget{ProjectID: 3},
			want:   "/v1/projects/3/forms",
		},
		{
			name:   "form key escapes the form id",
			key:    domain.KeyFormDraft,
			target: pathTarget{ProjectID: 3, Form: "a b"},
			want:   "/v1/projects/3/forms/a%20b/draft",
		},
		{
			name:   "submission",
			key:    domain.KeySubmission,
			target: pathTarget{ProjectID: 3, Form: "simple", Instance: "uuid:1"},
			want:   "/v1/projects/3/forms/simple/submissions/uuid:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pathFor(tt.key, tt.target)
			if err != nil {
				t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
			}
			if got != tt.want {
				t.Fatalf("\nwanted:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}

	t.Run("missing identifiers", func(t *testing.T) {
		_, err := pathFor(domain.KeyForm, pathTarget{ProjectID: 3})
		if !errors.Is(err, errMissingTarget) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", errMissingTarget, err)
		}
	})

	t.Run("key without an endpoint", func(t *testing.T) {
		if _, err := pathFor(domain.KeyActors, pathTarget{}); err == nil {
			t.Fatal("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
