// Package ralph implements the ralph-loop state machine.
//
// A loop is started by the Initializer, which writes a Loop State Record
// keyed by the owning session. After every agent turn the runtime invokes the
// Stop hook, where the Gatekeeper reads the record and the turn's transcript
// and decides to stop (completion marker found, budget exhausted, record
// corrupt, transcript unavailable) or to continue by re-injecting the goal.
//
// Records live in a Store (FileStore in production). Read-modify-write
// sequences run under the store's lock when it implements Locker.
package ralph
