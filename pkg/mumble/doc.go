// Package mumble reads the MumbleLink shared memory region published by the Guild Wars 2
// client.
//
// The game rewrites the region every frame without any synchronization with readers.
// Link therefore reads each field with one atomic load of its aligned 32-bit word: a
// single primitive never tears, but a composite value (a position vector, the context
// block, a whole Snapshot) may combine values from consecutive updates. Callers that need
// a consistent view compare ReadUITick before and after, or use ReadSettled.
//
// Basic usage:
//
//	link, err := mumble.Open(ctx, mumble.LinkName(os.Args[1:]))
//	if err != nil {
//		return err
//	}
//	defer link.Close()
//
//	if link.ReadUITick() != 0 {
//		fmt.Println(link.ReadMapID(), link.ReadMount())
//	}
//
// A zero tick means no writer has published yet. The library never writes the region and
// does not notify on change; callers poll.
package mumble
