// Package pages holds the per-page synchronization logic between views, the catalog backend and the session.
//
// Every data page follows the same contract:
//   - fetch on open or when its inputs change, in parallel when the requests are independent
//     and sequentially when one depends on another
//   - report Loading while a fetch is in flight
//   - replace its state wholesale on success
//   - patch its local list after a successful mutation instead of refetching
//   - notify on failure, and navigate to sign-in or the catalog for unauthorized and not-found results
//   - discard the result of any fetch superseded by a newer one
//
// Superseded fetches are detected with a [Tracker]. Starting a fetch cancels the previous one's context
// and hands out a [Token]; a result is applied only while its token is current. Discarded results return
// [ErrStale] and produce no notification.
//
// Views are decoupled through [Notifier] (toasts) and [Navigator] (route changes). The CLI and the TUI
// provide their own implementations.
package pages
