package outline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eykd/booktree-go/internal/domain"
)

func link(id string) Link {
	return Link{ID: id, Title: "Page " + id}
}

func linkPtr(id string) *Link {
	l := link(id)
	return &l
}

func TestManager_Navigation(t *testing.T) {
	m, _, _ := sampleManager(t)

	tests := []struct {
		item string
		want *Navigation
	}{
		{
			item: "R",
			want: &Navigation{
				Item:       link("R"),
				Book:       link("R"),
				Breadcrumb: []Link{},
				Next:       linkPtr("A"),
				Children:   []Link{link("A"), link("D"), link("E")},
			},
		},
		{
			item: "C",
			want: &Navigation{
				Item:       link("C"),
				Book:       link("R"),
				Breadcrumb: []Link{link("R"), link("A")},
				Previous:   linkPtr("B"),
				Up:         linkPtr("A"),
				Next:       linkPtr("D"),
				Children:   []Link{},
			},
		},
		{
			item: "A",
			want: &Navigation{
				Item:       link("A"),
				Book:       link("R"),
				Breadcrumb: []Link{link("R")},
				Previous:   linkPtr("R"),
				Up:         linkPtr("R"),
				Next:       linkPtr("B"),
				Children:   []Link{link("B"), link("C")},
			},
		},
		{
			item: "E",
			want: &Navigation{
				Item:       link("E"),
				Book:       link("R"),
				Breadcrumb: []Link{link("R")},
				Previous:   linkPtr("D"),
				Up:         linkPtr("R"),
				Children:   []Link{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			got, err := m.Navigation(context.Background(), tt.item)
			if err != nil {
				t.Fatalf("Navigation: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Navigation(%s) mismatch (-want +got):\n%s", tt.item, diff)
			}
		})
	}
}

func TestManager_NavigationFallsBackToIDForMissingContent(t *testing.T) {
	m, content, _ := sampleManager(t)
	content.forget("A")

	nav, err := m.Navigation(context.Background(), "B")
	if err != nil {
		t.Fatalf("Navigation: %v", err)
	}
	if nav.Up == nil || nav.Up.Title != "A" {
		t.Errorf("Up = %+v, want title A", nav.Up)
	}
}

func TestManager_NavigationUnknownItem(t *testing.T) {
	m, _, _ := sampleManager(t)

	if _, err := m.Navigation(context.Background(), "F"); !errors.Is(err, domain.ErrUnknownItem) {
		t.Errorf("error = %v, want ErrUnknownItem", err)
	}
}
