// Package jobs runs the reply-generation pipeline and tracks its jobs.
//
// A run request is validated before any job exists; a request without
// meta.threadId is rejected with a RequestError. A valid request creates a
// queued job, resolves the project's credential, fetches the thread through
// the cache, drafts a reply, persists the result best-effort and marks the
// job done, all within the Run call. The polling API (Get) is kept so that
// clients do not depend on execution being synchronous.
//
// Everything after validation degrades instead of failing: a missing or
// expired credential yields a placeholder thread, a failed draft yields the
// template draft, and write failures are logged and dropped in one place.
package jobs
