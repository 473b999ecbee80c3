//go:build property

package watcher

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates that bursts collapse into one batch with
// one event per path.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("burst yields one deduplicated batch", prop.ForAll(
		func(paths []int) bool {
			if len(paths) == 0 {
				return true
			}
			d := NewDebouncer(10 * time.Millisecond)
			unique := map[string]bool{}
			for _, p := range paths {
				name := fmt.Sprintf("f%d.yml", p)
				unique[name] = true
				d.Add(ChangeEvent{Type: EventTypeModified, Path: name})
			}

			select {
			case batch := <-d.Output():
				if len(batch) != len(unique) {
					return false
				}
				for i := 1; i < len(batch); i++ {
					if batch[i-1].Path >= batch[i].Path {
						return false
					}
				}
			case <-time.After(time.Second):
				return false
			}

			select {
			case <-d.Output():
				return false
			case <-time.After(30 * time.Millisecond):
				return true
			}
		},
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.TestingRun(t)
}
