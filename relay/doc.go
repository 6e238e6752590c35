// Package relay implements the run coordinator: the consumer-facing drain
// loop, input submission, and stop protocol, plus the worker-side event
// producer that implements the executor callback contract.
//
// The two halves never share memory. The Coordinator (consumer process)
// reads status and pops events; the Producer (worker process) writes status
// and pushes events. The input mailbox and stop flag flow the other way.
// Every exchange goes through the store.Store keyspace.
package relay
