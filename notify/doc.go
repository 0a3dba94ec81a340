// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify is an in-process publish/subscribe channel for tally changes.

	hub := notify.NewHub(16)
	sub := hub.Subscribe("election_1")
	defer sub.Close()

	for ev := range sub.C() {
		// re-fetch results for ev.ElectionID
	}

Events are invalidation hints. They carry the election id and nothing
else; viewers always re-read the authoritative snapshot.

Delivery is best effort and at most once. There is no replay for late
subscribers. Each subscription has a bounded buffer; when it is full the
oldest event is dropped, so the most recent change is never lost. Events
published to one subscriber arrive in publish order.

Hubs are plain values owned by the composition root. There is no package
level hub.
*/
package notify
