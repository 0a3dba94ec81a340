// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events forwards tally change markers to Kafka for consumers
outside the API process, such as a notice board or an audit log.

Each message is keyed by election id with a JSON value:

	{"election_id": "election_1", "at": "2025-03-01T10:00:00Z"}

	w := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
	go events.NewForwarder(hub, w).Run(ctx)
*/
package events
