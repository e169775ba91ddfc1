package catalog

import "minidb/pager"

// Options surfaces the storage engine's fixed capacities as
// construction parameters instead of compile-time constants, per the
// "fixed-capacity vs growable containers" design note: callers get to
// see and override the historical defaults (4 indexes, 8 tables, 8
// open tables) rather than guessing at hidden limits. The 100-page
// cap is reported through MaxPages but cannot be overridden.
type Options struct {
	MaxIndexes    int
	MaxTables     int
	MaxOpenTables int
	// MaxPages documents the pager's page cap; it is not wired to
	// override pager.TableMaxPages, which the pager retains as a hard
	// limit (the pager never evicts pages, so raising this without a
	// corresponding storage redesign would just move the crash point).
	MaxPages int
}

// DefaultOptions returns the historical constants carried over from
// the original implementation's #define values.
func DefaultOptions() Options {
	return Options{
		MaxIndexes:    4,
		MaxTables:     8,
		MaxOpenTables: 8,
		MaxPages:      pager.TableMaxPages,
	}
}
