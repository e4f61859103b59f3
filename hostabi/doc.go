// Package hostabi implements the contract between the host and every
// guest plugin: the `memory`/`process` exports a plugin must provide,
// the `host.log` import the host provides, the fixed-offset input/env
// memory layout, and the environment JSON payload. There is no
// allocator handshake: the host writes directly into the guest's first
// page of linear memory, which the guest must leave unused until it
// reads its arguments.
package hostabi
