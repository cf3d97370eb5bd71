// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3ddreamcrafts/dreamcrafts/internal/model"
	"github.com/3ddreamcrafts/dreamcrafts/internal/store"
	"github.com/3ddreamcrafts/dreamcrafts/internal/testutil"
)

// fakeClock is a settable time source for the manager.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	m := NewManager(store.Wrap(testutil.TestDB(t))).WithClock(clock.Now)
	return m, clock
}

func validInputs() []Input {
	return []Input{
		FeaturedPrintInput{
			Title:       String("Articulated Dragon"),
			Description: String("Silk PLA, 40cm"),
			ImagePath:   String("prints/dragon.jpg"),
			IsActive:    Bool(true),
		},
		CraftShowInput{
			Title:     String("Makers Market"),
			EventDate: String("2026-11-01"),
			Location:  String("Town Hall"),
		},
		NewsArticleInput{
			Title:         String("New colors"),
			Content:       String("We now stock **galaxy black**."),
			PublishedDate: String("2026-10-01 09:00"),
			IsPublished:   Bool(true),
		},
	}
}

func TestCreateThenGet(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	for _, in := range validInputs() {
		t.Run(in.Kind().Table(), func(t *testing.T) {
			id, err := m.Create(ctx, in)
			require.NoError(t, err)
			require.NotZero(t, id)

			row, err := m.Get(ctx, in.Kind(), id)
			require.NoError(t, err)

			for col, v := range in.Values() {
				switch want := v.(type) {
				case string:
					if col == "published_date" {
						continue
					}
					assert.Equal(t, want, row.String(col), "column %s", col)
				case bool:
					assert.Equal(t, want, row.Bool(col), "column %s", col)
				}
			}

			created := row.Time("created_at")
			assert.True(t, created.Equal(clock.Now()), "created_at = %v", created)
			assert.True(t, created.Equal(row.Time("updated_at")), "created_at != updated_at at creation")
		})
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	printID, err := m.Create(ctx, FeaturedPrintInput{Title: String("Vase")})
	require.NoError(t, err)
	p, err := m.FeaturedPrint(ctx, printID)
	require.NoError(t, err)
	assert.True(t, p.IsActive, "featured prints default to active")
	assert.Empty(t, p.Description)

	newsID, err := m.Create(ctx, NewsArticleInput{Title: String("Draft"), Content: String("Body")})
	require.NoError(t, err)
	a, err := m.NewsArticle(ctx, newsID)
	require.NoError(t, err)
	assert.False(t, a.IsPublished, "articles default to unpublished")
	assert.True(t, a.PublishedDate.Equal(clock.Now()), "published_date defaults to now, got %v", a.PublishedDate)
}

func TestCreateEscapesText(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, FeaturedPrintInput{Title: String(`<script>alert("x")</script>`)})
	require.NoError(t, err)

	p, err := m.FeaturedPrint(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;", p.Title)
}

func TestCreateValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      Input
		wantMsg string
	}{
		{"print empty title", FeaturedPrintInput{Title: String("")}, "Title is required"},
		{"print missing title", FeaturedPrintInput{Description: String("x")}, "Title is required"},
		{"show empty title", CraftShowInput{Title: String("  "), EventDate: String("2026-11-01"), Location: String("Hall")}, "Title is required"},
		{"news empty title", NewsArticleInput{Title: String(""), Content: String("x")}, "Title is required"},
		{"show bad date", CraftShowInput{Title: String("Fair"), EventDate: String("invalid-date"), Location: String("Hall")}, "Invalid date format"},
		{"show missing location", CraftShowInput{Title: String("Fair"), EventDate: String("2026-11-01")}, "Location is required"},
		{"news bad date", NewsArticleInput{Title: String("x"), Content: String("y"), PublishedDate: String("soon")}, "Invalid date format"},
		{"news missing content", NewsArticleInput{Title: String("x")}, "Content is required"},
		{"title too long", FeaturedPrintInput{Title: String(strings.Repeat("a", 256))}, "Title must be at most 255 characters"},
		{"traversal image", FeaturedPrintInput{Title: String("x"), ImagePath: String("../../etc/passwd")}, "Image path is not a valid upload path"},
		{"unknown field", RawInput{For: model.CraftShows, Fields: map[string]any{
			"title": "Fair", "event_date": "2026-11-01", "location": "Hall", "id; DROP TABLE craft_shows": "1",
		}}, `Unknown field "id; DROP TABLE craft_shows"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "error should match ErrValidation: %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCreateRejectsSettingsKind(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Create(context.Background(), RawInput{For: model.Settings, Fields: map[string]any{"site_title": "x"}})
	assert.ErrorIs(t, err, model.ErrInvalidKind)
	assert.Equal(t, "Invalid table name", err.Error())
}

func TestUpdatePartial(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, CraftShowInput{
		Title:       String("Makers Market"),
		EventDate:   String("2026-11-01"),
		Location:    String("Town Hall"),
		Description: String("Booth 12"),
	})
	require.NoError(t, err)

	before, err := m.CraftShow(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	require.NoError(t, m.Update(ctx, model.CraftShows, id, CraftShowInput{Location: String("Library")}))

	after, err := m.CraftShow(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Library", after.Location)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "created_at changed")
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "updated_at did not advance")

	// Everything except location and updated_at is untouched.
	before.Location = after.Location
	before.UpdatedAt = after.UpdatedAt
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("unexpected changes (-before +after):\n%s", diff)
	}
}

func TestUpdateNoChangeAndMissingRow(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, FeaturedPrintInput{Title: String("Vase")})
	require.NoError(t, err)

	assert.NoError(t, m.Update(ctx, model.FeaturedPrints, id, FeaturedPrintInput{Title: String("Vase")}))
	assert.NoError(t, m.Update(ctx, model.FeaturedPrints, id, FeaturedPrintInput{}))
	assert.NoError(t, m.Update(ctx, model.FeaturedPrints, 9999, FeaturedPrintInput{Title: String("Ghost")}))
}

func TestUpdateValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, CraftShowInput{Title: String("Fair"), EventDate: String("2026-11-01"), Location: String("Hall")})
	require.NoError(t, err)

	err = m.Update(ctx, model.CraftShows, id, CraftShowInput{EventDate: String("invalid-date")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Invalid date format")

	err = m.Update(ctx, model.CraftShows, id, CraftShowInput{Title: String("")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Title is required")

	err = m.Update(ctx, model.CraftShows, id, FeaturedPrintInput{Title: String("x")})
	assert.ErrorIs(t, err, model.ErrInvalidKind)

	show, err := m.CraftShow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", show.EventDate)
	assert.Equal(t, "Fair", show.Title)
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for _, in := range validInputs() {
		id, err := m.Create(ctx, in)
		require.NoError(t, err)

		require.NoError(t, m.Delete(ctx, in.Kind(), id))

		_, err = m.Get(ctx, in.Kind(), id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.ErrorIs(t, m.Delete(ctx, in.Kind(), id), store.ErrNotFound)
	}

	assert.ErrorIs(t, m.Delete(ctx, model.Settings, 1), model.ErrInvalidKind)
}

func TestToggle(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()

	for _, in := range validInputs() {
		t.Run(in.Kind().Table(), func(t *testing.T) {
			id, err := m.Create(ctx, in)
			require.NoError(t, err)

			orig, err := m.Get(ctx, in.Kind(), id)
			require.NoError(t, err)
			col := in.Kind().FlagColumn()

			clock.Advance(time.Minute)
			first, err := m.Toggle(ctx, in.Kind(), id, col)
			require.NoError(t, err)
			assert.Equal(t, !orig.Bool(col), first)

			second, err := m.Toggle(ctx, in.Kind(), id, "")
			require.NoError(t, err)
			assert.Equal(t, orig.Bool(col), second)

			after, err := m.Get(ctx, in.Kind(), id)
			require.NoError(t, err)
			assert.Equal(t, orig.Bool(col), after.Bool(col))
			assert.True(t, after.Time("updated_at").After(orig.Time("updated_at")))
		})
	}

	_, err := m.Toggle(ctx, model.CraftShows, 9999, "is_active")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = m.Toggle(ctx, model.CraftShows, 1, "title")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = m.Toggle(ctx, model.NewsArticles, 1, "is_active")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFeature(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"One", "Two", "Three"} {
		id, err := m.Create(ctx, FeaturedPrintInput{Title: String(title), IsActive: Bool(true)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, m.Feature(ctx, ids[1]))

	for _, id := range ids {
		p, err := m.FeaturedPrint(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id == ids[1], p.IsActive, "print %d", id)
	}

	active, err := m.ActiveFeaturedPrint(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[1], active.ID)

	assert.ErrorIs(t, m.Feature(ctx, 9999), store.ErrNotFound)
	p, err := m.FeaturedPrint(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, p.IsActive, "failed feature must not deactivate the current print")
}

func TestActiveFeaturedPrintNone(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, FeaturedPrintInput{Title: String("Hidden"), IsActive: Bool(false)})
	require.NoError(t, err)

	_, err = m.ActiveFeaturedPrint(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestList(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	empty, err := m.List(ctx, model.NewsArticles, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Empty(t, empty.Items)

	for i := 0; i < 25; i++ {
		_, err := m.Create(ctx, FeaturedPrintInput{Title: String("Print")})
		require.NoError(t, err)
	}

	page, err := m.List(ctx, model.FeaturedPrints, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Items, 5)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())

	first, err := m.List(ctx, model.FeaturedPrints, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Equal(t, DefaultPerPage, first.PerPage)
	assert.Equal(t, int64(25), first.Items[0].Int64("id"), "newest first")

	big, err := m.List(ctx, model.FeaturedPrints, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, big.PerPage)

	_, err = m.List(ctx, model.Settings, 1, 10)
	assert.ErrorIs(t, err, model.ErrInvalidKind)
}

func TestUpcomingShowsScenario(t *testing.T) {
	m, clock := newTestManager(t)
	ctx := context.Background()
	today := clock.Now()

	futureID, err := m.Create(ctx, CraftShowInput{
		Title:     String("Next Week Fair"),
		EventDate: String(today.AddDate(0, 0, 7).Format(time.DateOnly)),
		Location:  String("Hall"),
		IsActive:  Bool(true),
	})
	require.NoError(t, err)

	_, err = m.Create(ctx, CraftShowInput{
		Title:     String("Last Week Fair"),
		EventDate: String(today.AddDate(0, 0, -7).Format(time.DateOnly)),
		Location:  String("Hall"),
		IsActive:  Bool(true),
	})
	require.NoError(t, err)

	todayID, err := m.Create(ctx, CraftShowInput{
		Title:     String("Today Fair"),
		EventDate: String(today.Format(time.DateOnly)),
		Location:  String("Park"),
	})
	require.NoError(t, err)

	shows, err := m.UpcomingShows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, todayID, shows[0].ID, "soonest first")
	assert.Equal(t, futureID, shows[1].ID)

	_, err = m.Toggle(ctx, model.CraftShows, futureID, "is_active")
	require.NoError(t, err)

	shows, err = m.UpcomingShows(ctx, 0)
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, todayID, shows[0].ID)

	limited, err := m.UpcomingShows(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPublishedNews(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	dates := []string{"2026-01-01", "2026-03-01", "2026-02-01"}
	var ids []int64
	for _, d := range dates {
		id, err := m.Create(ctx, NewsArticleInput{
			Title:         String("Post " + d),
			Content:       String("Body"),
			PublishedDate: String(d),
			IsPublished:   Bool(true),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	draftID, err := m.Create(ctx, NewsArticleInput{Title: String("Draft"), Content: String("Body")})
	require.NoError(t, err)

	page, err := m.PublishedNews(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[1], page.Items[0].ID, "newest published_date first")
	assert.Equal(t, ids[2], page.Items[1].ID)

	_, err = m.PublishedArticle(ctx, draftID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	a, err := m.PublishedArticle(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Post 2026-01-01", a.Title)
}

func TestStats(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, FeaturedPrintInput{Title: String("A")})
	require.NoError(t, err)
	_, err = m.Create(ctx, FeaturedPrintInput{Title: String("B"), IsActive: Bool(false)})
	require.NoError(t, err)
	_, err = m.Create(ctx, NewsArticleInput{Title: String("N"), Content: String("C")})
	require.NoError(t, err)

	stats, err := m.Stats(ctx)
	require.NoError(t, err)

	want := []KindStats{
		{Kind: model.FeaturedPrints, Total: 2, Visible: 1},
		{Kind: model.CraftShows, Total: 0, Visible: 0},
		{Kind: model.NewsArticles, Total: 1, Visible: 0},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}
