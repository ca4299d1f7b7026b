package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pinmap/internal/models"
	"github.com/desertthunder/pinmap/internal/services"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/store"
	"github.com/desertthunder/pinmap/internal/tasks"
	tu "github.com/desertthunder/pinmap/internal/testing"
)

var eiffel = tu.FakePlace{
	PlaceID: "eiffel-1",
	Name:    "Eiffel Tower",
	Lat:     48.8584,
	Lng:     2.2945,
	Address: "Av. Gustave Eiffel, 75007 Paris, France",
	Rating:  4.7,
	Total:   345000,
	OpenNow: tu.OpenNow(true),
	Types:   []string{"tourist_attraction", "point_of_interest"},
}

type testEnv struct {
	model  *Model
	store  *store.MarkerStore
	chat   *tu.ChatServer
	opened []string
	copied []string
}

func newTestEnv(t *testing.T, seed ...models.Marker) *testEnv {
	t.Helper()

	srv := tu.NewPlacesServer(t, eiffel)
	chat := tu.NewChatServer(t, "")
	logger := shared.NewLogger(io.Discard)

	st, err := store.Open(store.NewMemoryBackend())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	for _, m := range seed {
		if err := st.Add(m); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}

	placesSvc := services.NewPlacesService(services.PlacesOpts{APIKey: "key", BaseURL: srv.URL, Logger: logger})
	llm := services.NewOpenAIService(shared.OpenAIConfig{APIKey: "sk-test", BaseURL: chat.URL}, nil, logger)
	pipeline := tasks.NewPipeline(
		services.NewResolver(placesSvc, nil, logger), st,
		services.NewInterpreter(llm, 0, logger),
		services.NewExtractor(llm, 0, services.DefaultFallbackCity, logger),
		logger,
	)

	env := &testEnv{store: st, chat: chat}
	env.model = NewModel(context.Background(), Options{
		Store:    st,
		Pipeline: pipeline,
		Map:      shared.DefaultConfig().Map,
		OpenURL: func(url string) error {
			env.opened = append(env.opened, url)
			return nil
		},
		Copy: func(text string) error {
			env.copied = append(env.copied, text)
			return nil
		},
	})
	return env
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (e *testEnv) press(msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = e.model.Update(msg)
	}
	return cmd
}

// drain feeds a run's messages back into the model until it completes.
func (e *testEnv) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	for range 100 {
		if cmd == nil {
			t.Fatal("run ended without a completion message")
		}
		msg := cmd()
		_, cmd = e.model.Update(msg)
		if m, ok := msg.(Msg); ok && m.kind == MsgRunComplete {
			return
		}
	}
	t.Fatal("run did not complete")
}

func TestMarkerListView(t *testing.T) {
	t.Run("renders markers", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)
		view := env.model.View()

		for _, want := range []string{"Eiffel Tower", "Steirereck", "Open now", "Closed", "Markers (3)"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
	})

	t.Run("empty store shows a hint", func(t *testing.T) {
		env := newTestEnv(t)
		if !strings.Contains(env.model.View(), "No markers yet") {
			t.Errorf("expected empty hint, got:\n%s", env.model.View())
		}
	})

	t.Run("window resize", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)
		env.press(tea.WindowSizeMsg{Width: 120, Height: 40})
		if env.model.width != 120 || env.model.height != 40 {
			t.Errorf("expected 120x40, got %dx%d", env.model.width, env.model.height)
		}
	})

	t.Run("q quits", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := env.press(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("known place is added", func(t *testing.T) {
		env := newTestEnv(t)

		env.press(runes("/"))
		if env.model.view != InputView || env.model.mode != SearchInput {
			t.Fatalf("expected search input, got view %d mode %d", env.model.view, env.model.mode)
		}

		env.press(runes("Eiffel Tower, Paris, France"))
		cmd := env.press(tea.KeyMsg{Type: tea.KeyEnter})
		if env.model.view != ProgressView {
			t.Fatalf("expected progress view, got %d", env.model.view)
		}
		env.drain(t, cmd)

		if env.model.view != ResultView {
			t.Fatalf("expected result view, got %d", env.model.view)
		}
		if env.store.Len() != 1 {
			t.Errorf("expected 1 marker, got %d", env.store.Len())
		}
		if view := env.model.View(); !strings.Contains(view, "Added 1 of 1 places") {
			t.Errorf("unexpected result view:\n%s", view)
		}

		env.press(tea.KeyMsg{Type: tea.KeyEnter})
		if env.model.view != MarkerListView {
			t.Errorf("expected marker list after dismissing, got %d", env.model.view)
		}
		if !strings.Contains(env.model.View(), "Eiffel Tower") {
			t.Error("expected the new marker in the list")
		}
	})

	t.Run("unknown place shows the notice", func(t *testing.T) {
		env := newTestEnv(t)

		env.press(runes("/"), runes("Zzzyx, Nowhere"))
		env.drain(t, env.press(tea.KeyMsg{Type: tea.KeyEnter}))

		view := env.model.View()
		if !strings.Contains(view, "Could not find 1 place:") || !strings.Contains(view, "Zzzyx, Nowhere") {
			t.Errorf("expected unresolved notice, got:\n%s", view)
		}
		if env.store.Len() != 0 {
			t.Errorf("expected no markers, got %d", env.store.Len())
		}
	})

	t.Run("empty input is ignored", func(t *testing.T) {
		env := newTestEnv(t)
		env.press(runes("/"), runes("   "))
		if cmd := env.press(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
			t.Error("expected no command for blank input")
		}
		if env.model.view != InputView {
			t.Errorf("expected to stay in input view, got %d", env.model.view)
		}
	})

	t.Run("esc cancels input", func(t *testing.T) {
		env := newTestEnv(t)
		env.press(runes("/"), runes("q"), tea.KeyMsg{Type: tea.KeyEsc})
		if env.model.view != MarkerListView {
			t.Errorf("expected marker list, got %d", env.model.view)
		}
	})
}

func TestAskAndExtract(t *testing.T) {
	t.Run("ask", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.SetAnswer("Eiffel Tower, Paris, France\nZzzyx, Nowhere")

		env.press(runes("a"), runes("What is the tallest tower in Paris?"))
		env.drain(t, env.press(tea.KeyMsg{Type: tea.KeyEnter}))

		view := env.model.View()
		if !strings.Contains(view, "Added 1 of 2 places") {
			t.Errorf("unexpected result view:\n%s", view)
		}
		if !strings.Contains(view, "Zzzyx, Nowhere") {
			t.Errorf("expected notice for the unresolved place:\n%s", view)
		}
	})

	t.Run("extract submits with ctrl+s", func(t *testing.T) {
		env := newTestEnv(t)
		env.chat.SetAnswer("Eiffel Tower, Paris, France")

		env.press(runes("e"))
		if env.model.mode != ExtractInput {
			t.Fatalf("expected extract mode, got %d", env.model.mode)
		}
		env.press(runes("We walked to the Eiffel Tower"))
		if cmd := env.press(tea.KeyMsg{Type: tea.KeyEnter}); env.model.view != InputView {
			t.Fatalf("enter should insert a newline in the text area, got view %d (cmd %v)", env.model.view, cmd != nil)
		}
		env.drain(t, env.press(tea.KeyMsg{Type: tea.KeyCtrlS}))

		if env.store.Len() != 1 {
			t.Errorf("expected 1 marker, got %d", env.store.Len())
		}
	})

	t.Run("missing model shows the error", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.pipeline = tasks.NewPipeline(nil, env.store, nil, nil, shared.NewLogger(io.Discard))

		env.press(runes("a"), runes("anything"))
		env.drain(t, env.press(tea.KeyMsg{Type: tea.KeyEnter}))

		if !errors.Is(env.model.runErr, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", env.model.runErr)
		}
		if view := env.model.View(); !strings.Contains(view, "Run failed") {
			t.Errorf("expected failure view, got:\n%s", view)
		}
	})
}

func TestMarkerActions(t *testing.T) {
	t.Run("delete selected", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)
		first := env.store.Markers()[0]

		env.press(runes("d"))
		if env.store.Len() != 2 {
			t.Fatalf("expected 2 markers, got %d", env.store.Len())
		}
		if _, err := env.store.Get(first.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected %s to be removed", first.Name)
		}
	})

	t.Run("remove all asks first", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)

		env.press(runes("D"))
		if env.model.view != ConfirmClearView {
			t.Fatalf("expected confirmation, got %d", env.model.view)
		}
		env.press(runes("n"))
		if env.store.Len() != 3 {
			t.Fatalf("declining must keep markers, got %d", env.store.Len())
		}

		env.press(runes("D"), runes("y"))
		if env.store.Len() != 0 {
			t.Errorf("expected empty store, got %d", env.store.Len())
		}
		if env.model.view != MarkerListView {
			t.Errorf("expected marker list, got %d", env.model.view)
		}
	})

	t.Run("open and copy", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)
		first := env.store.Markers()[0]

		env.press(env.press(runes("o"))())
		if len(env.opened) != 1 || env.opened[0] != first.GoogleMapsURL() {
			t.Errorf("expected %s to be opened, got %v", first.GoogleMapsURL(), env.opened)
		}
		if !strings.Contains(env.model.View(), "Opened") {
			t.Error("expected status line after opening")
		}

		env.press(env.press(runes("c"))())
		if len(env.copied) != 1 || env.copied[0] != first.Summary() {
			t.Errorf("expected marker summary on the clipboard, got %v", env.copied)
		}
	})

	t.Run("clipboard failure", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)
		env.model.copyText = func(string) error { return errors.New("no clipboard") }

		env.press(env.press(runes("c"))())
		if !strings.Contains(env.model.View(), "Error:") {
			t.Errorf("expected error status, got:\n%s", env.model.View())
		}
	})

	t.Run("viewport", func(t *testing.T) {
		env := newTestEnv(t, tu.SampleMarkers()...)

		env.press(runes("v"))
		view := env.model.View()
		for _, want := range []string{"Viewport", "Zoom:", "South-west:", "museum"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected viewport view to contain %q:\n%s", want, view)
			}
		}

		env.press(tea.KeyMsg{Type: tea.KeyEsc})
		if env.model.view != MarkerListView {
			t.Errorf("expected marker list, got %d", env.model.view)
		}
	})
}

func TestLists(t *testing.T) {
	env := newTestEnv(t, tu.SampleMarkers()...)

	env.press(runes("s"), runes("Europe trip"), tea.KeyMsg{Type: tea.KeyEnter})
	if lists := env.store.Lists(); len(lists) != 1 || lists[0].Name != "Europe trip" {
		t.Fatalf("expected saved list, got %+v", lists)
	}
	if !strings.Contains(env.model.View(), `Saved list "Europe trip" (3 places)`) {
		t.Errorf("expected save status, got:\n%s", env.model.View())
	}

	env.press(runes("D"), runes("y"))
	env.press(runes("l"))
	if env.model.view != ListsView {
		t.Fatalf("expected lists view, got %d", env.model.view)
	}
	if !strings.Contains(env.model.View(), "Europe trip") {
		t.Errorf("expected list in view:\n%s", env.model.View())
	}

	env.press(tea.KeyMsg{Type: tea.KeyEnter})
	if env.store.Len() != 3 {
		t.Fatalf("expected 3 markers after loading, got %d", env.store.Len())
	}
	if env.model.view != MarkerListView {
		t.Errorf("expected marker list after loading, got %d", env.model.view)
	}

	env.press(runes("l"), runes("x"))
	if len(env.store.Lists()) != 0 {
		t.Errorf("expected list to be deleted, got %+v", env.store.Lists())
	}
	if !strings.Contains(env.model.View(), "No saved lists") {
		t.Errorf("expected empty lists hint, got:\n%s", env.model.View())
	}
}

func TestItems(t *testing.T) {
	markers := tu.SampleMarkers()

	item := markerItem{marker: markers[0]}
	if !strings.Contains(item.Title(), "Eiffel Tower") {
		t.Errorf("unexpected title %q", item.Title())
	}
	if desc := item.Description(); !strings.Contains(desc, "4.7★ (345000)") || !strings.Contains(desc, "Open now") {
		t.Errorf("unexpected description %q", desc)
	}

	bare := markerItem{marker: models.NewMarker("Dropped pin", models.Coordinates{Lat: 1, Lng: 2}, markers[0].CreatedAt)}
	if bare.Description() != bare.marker.Coordinates.String() {
		t.Errorf("expected coordinates for a bare marker, got %q", bare.Description())
	}

	li := listItem{summary: models.PlaceListSummary{Name: "Trip", MarkerCount: 2}}
	if li.Description() != "2 places" {
		t.Errorf("unexpected list description %q", li.Description())
	}
}
