package ecs

import (
	"errors"
	"strings"
	"testing"

	"github.com/milk9111/ebiten-yarn/ecs/component"
)

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if IsAlive(w, ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false for a dead entity")
				}
				if len(Entities(w)) != c.create-1 {
					t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
				}
			}
		})
	}
}

func TestRecycledSlotInvalidatesStaleHandle(t *testing.T) {
	w := NewWorld()
	h := component.NewComponent[int]()

	old := CreateEntity(w)
	if err := Add(w, old, h.Kind(), intPtr(1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	DestroyEntity(w, old)

	fresh := CreateEntity(w)
	if fresh.id() != old.id() {
		t.Fatalf("expected slot %d to be recycled, got %d", old.id(), fresh.id())
	}
	if fresh == old {
		t.Fatalf("recycled handle must carry a new generation")
	}
	if IsAlive(w, old) {
		t.Fatalf("stale handle reported alive")
	}
	if Has(w, fresh, h.Kind()) {
		t.Fatalf("components must not survive slot reuse")
	}
	if err := Add(w, old, h.Kind(), intPtr(2)); !errors.Is(err, component.ErrEntityNotAlive) {
		t.Fatalf("expected ErrEntityNotAlive for stale handle, got %v", err)
	}
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestComponents(t *testing.T) {
	w := NewWorld()

	h1 := component.NewComponent[int]()
	h2 := component.NewComponent[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int_to_e1",
			setup: func() error { return Add(w, e1, h1.Kind(), intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, h1.Kind())
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, h1.Kind()) },
		},
		{
			name: "add_str_to_e1_and_e2",
			setup: func() error {
				if err := Add(w, e1, h2.Kind(), stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, h2.Kind(), stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, h2.Kind()) || !Has(w, e2, h2.Kind()) {
					t.Fatalf("expected both entities to have string component")
				}
			},
			teardown: func() bool { return Remove(w, e1, h2.Kind()) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}

	t.Run("nil_value", func(t *testing.T) {
		if err := Add[int](w, e1, h1.Kind(), nil); !errors.Is(err, component.ErrNilComponent) {
			t.Fatalf("expected ErrNilComponent, got %v", err)
		}
	})

	t.Run("zero_kind", func(t *testing.T) {
		var kind component.ComponentKind[int]
		if err := Add(w, e1, kind, intPtr(1)); !errors.Is(err, component.ErrInvalidComponentKind) {
			t.Fatalf("expected ErrInvalidComponentKind, got %v", err)
		}
	})
}

func TestForEach(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		w := NewWorld()
		h := component.NewComponent[int]()

		e1 := CreateEntity(w)
		e2 := CreateEntity(w)
		e3 := CreateEntity(w)

		if err := Add(w, e1, h.Kind(), intPtr(1)); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if err := Add(w, e3, h.Kind(), intPtr(3)); err != nil {
			t.Fatalf("add failed: %v", err)
		}

		seen := map[Entity]int{}
		ForEach(w, h.Kind(), func(e Entity, v *int) { seen[e] = *v })

		if seen[e1] != 1 || seen[e3] != 3 {
			t.Fatalf("unexpected ForEach result %v", seen)
		}
		if _, ok := seen[e2]; ok {
			t.Fatalf("did not expect e2 in ForEach result")
		}
	})

	t.Run("destroy_during_iteration", func(t *testing.T) {
		w := NewWorld()
		h := component.NewComponent[int]()
		for i := 0; i < 4; i++ {
			e := CreateEntity(w)
			if err := Add(w, e, h.Kind(), intPtr(i)); err != nil {
				t.Fatalf("add failed: %v", err)
			}
		}

		visits := 0
		ForEach(w, h.Kind(), func(e Entity, _ *int) {
			visits++
			DestroyEntity(w, e)
		})
		if visits != 4 {
			t.Fatalf("expected 4 visits, got %d", visits)
		}
		if _, ok := First(w, h.Kind()); ok {
			t.Fatalf("expected store to be empty")
		}
	})
}

func TestForEach2(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "intersection",
			run: func(t *testing.T) {
				w := NewWorld()
				e1 := CreateEntity(w)
				e2 := CreateEntity(w)
				e3 := CreateEntity(w)

				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[string]()

				if err := Add(w, e1, ka, intPtr(1)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e2, ka, intPtr(2)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e2, kb, stringPtr("b")); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e3, kb, stringPtr("c")); err != nil {
					t.Fatal(err)
				}

				var res []Entity
				ForEach2(w, ka, kb, func(e Entity, _ *int, _ *string) { res = append(res, e) })
				if len(res) != 1 || res[0] != e2 {
					t.Fatalf("expected only e2, got %v", res)
				}
			},
		},
		{
			name: "missing_store",
			run: func(t *testing.T) {
				w := NewWorld()
				e := CreateEntity(w)

				ka := component.NewComponentKind[int]()
				kb := component.NewComponentKind[int]()

				if err := Add(w, e, ka, intPtr(1)); err != nil {
					t.Fatal(err)
				}

				var res []Entity
				ForEach2(w, ka, kb, func(e Entity, _ *int, _ *int) { res = append(res, e) })
				if len(res) != 0 {
					t.Fatalf("expected empty when other store missing, got %v", res)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}

type recordSystem struct {
	name string
	log  *[]string
}

func (r recordSystem) Update(*World) {
	*r.log = append(*r.log, r.name)
}

func TestWorldUpdateStagesAndEvents(t *testing.T) {
	w := NewWorld()
	var order []string

	w.AddStageSystem(PostUpdate, recordSystem{"post", &order})
	w.AddSystem(recordSystem{"update", &order})
	w.AddStageSystem(PreUpdate, recordSystem{"pre", &order})

	var seen []string
	w.AddStageSystem(PreUpdate, SystemFunc(func(w *World) { Emit(w, "hello") }))
	w.AddStageSystem(PostUpdate, SystemFunc(func(w *World) { seen = append(seen, Read[string](w)...) }))

	w.Update()

	want := []string{"pre", "update", "post"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
	if len(seen) != 1 || seen[0] != "hello" {
		t.Fatalf("expected event to be visible in a later stage, got %v", seen)
	}
	if len(w.Events().Items()) != 0 {
		t.Fatalf("expected events to be flushed at end of tick")
	}
	if w.Tick() != 1 {
		t.Fatalf("expected tick 1, got %d", w.Tick())
	}
}

func TestComponentKindNamesType(t *testing.T) {
	type position struct{ X, Y float64 }
	h := component.NewComponent[position]()
	if got := h.Kind().String(); got != "ecs.position" {
		t.Fatalf("expected ecs.position, got %q", got)
	}

	w := NewWorld()
	e := CreateEntity(w)
	err := Add[position](w, e, h.Kind(), nil)
	if !errors.Is(err, component.ErrNilComponent) {
		t.Fatalf("expected ErrNilComponent, got %v", err)
	}
	if !strings.Contains(err.Error(), "ecs.position") {
		t.Fatalf("expected error to name the component, got %q", err)
	}
}
