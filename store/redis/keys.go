package redis

// Redis key naming conventions for the per-run keyspace.
// All keys are prefixed with "flowrelay:" to avoid collisions.

const keyPrefix = "flowrelay:"

// dataKey returns the run data snapshot key: flowrelay:run:{token}:data
func dataKey(token string) string { return keyPrefix + "run:" + token + ":data" }

// statusKey returns the status register key: flowrelay:run:{token}:status
func statusKey(token string) string { return keyPrefix + "run:" + token + ":status" }

// eventKey returns the event channel List key: flowrelay:run:{token}:event
func eventKey(token string) string { return keyPrefix + "run:" + token + ":event" }

// inputKey returns the input mailbox key: flowrelay:run:{token}:input
func inputKey(token string) string { return keyPrefix + "run:" + token + ":input" }

// stopKey returns the stop flag key: flowrelay:run:{token}:stop
func stopKey(token string) string { return keyPrefix + "run:" + token + ":stop" }
